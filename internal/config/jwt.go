package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by NewJWTConfig.
const (
	EnvJWTSecret          = "JWT_SECRET"
	EnvJWTExpirationHours = "JWT_EXPIRATION_HOURS"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 16

// JWTConfig holds the settings for the bearer tokens that guard the proxy's
// AI endpoints.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS
// (default 24) from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	return JWTConfigFromEnv(os.Getenv)
}

// JWTConfigFromEnv is NewJWTConfig with an explicit lookup function.
func JWTConfigFromEnv(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv(EnvJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("%s is required but not set", EnvJWTSecret)
	}

	expirationStr := getenv(EnvJWTExpirationHours)
	if expirationStr == "" {
		expirationStr = "24"
	}
	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvJWTExpirationHours, err)
	}

	cfg := &JWTConfig{Secret: secret, ExpirationHours: expirationHours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Expiration is the token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

func (c *JWTConfig) normalize() error {
	if len(c.Secret) < MinJWTSecretLength {
		return fmt.Errorf("%s must be at least %d characters", EnvJWTSecret, MinJWTSecretLength)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%s must be at least 1 hour, got: %d", EnvJWTExpirationHours, c.ExpirationHours)
	}
	return nil
}
