package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_RoundTrip(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	p, err := ConnectPostgres(ctx, databaseURL)
	require.NoError(t, err)
	defer p.Close()

	key := "test." + uuid.NewString()
	defer func() { _ = p.Remove(ctx, key) }()

	require.NoError(t, p.Set(ctx, key, "one"))
	require.NoError(t, p.Set(ctx, key, "two"))

	got, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", got)

	require.NoError(t, p.Remove(ctx, key))
	_, ok, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
