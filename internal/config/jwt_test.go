package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestJWTConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		hours   int
		errText string
	}{
		{"defaults", map[string]string{EnvJWTSecret: "0123456789abcdef"}, 24, ""},
		{"custom expiration", map[string]string{EnvJWTSecret: "0123456789abcdef", EnvJWTExpirationHours: "2"}, 2, ""},
		{"missing secret", map[string]string{}, 0, "required"},
		{"short secret", map[string]string{EnvJWTSecret: "short"}, 0, "at least 16"},
		{"non numeric expiration", map[string]string{EnvJWTSecret: "0123456789abcdef", EnvJWTExpirationHours: "soon"}, 0, "invalid"},
		{"zero expiration", map[string]string{EnvJWTSecret: "0123456789abcdef", EnvJWTExpirationHours: "0"}, 0, "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := JWTConfigFromEnv(envMap(tt.env))
			if tt.errText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hours, cfg.ExpirationHours)
			assert.Equal(t, time.Duration(tt.hours)*time.Hour, cfg.Expiration())
		})
	}
}

func TestNewJWTConfig_ReadsProcessEnv(t *testing.T) {
	t.Setenv(EnvJWTSecret, "process-env-secret-value")
	t.Setenv(EnvJWTExpirationHours, "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "process-env-secret-value", cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours)
}
