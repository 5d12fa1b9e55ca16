package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/store"
)

type countingFetcher struct {
	calls int
	text  string
	err   error
}

func (f *countingFetcher) FetchText(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestCachedFetcher_HitAndExpiry(t *testing.T) {
	ctx := context.Background()
	next := &countingFetcher{text: "posting"}
	mem := store.NewMemory()

	now := time.UnixMilli(1_700_000_000_000)
	c := NewCachedFetcher(next, mem, time.Hour, nil)
	c.now = func() time.Time { return now }

	for range 3 {
		text, err := c.FetchText(ctx, "https://example.com/job")
		require.NoError(t, err)
		assert.Equal(t, "posting", text)
	}
	assert.Equal(t, 1, next.calls)

	now = now.Add(2 * time.Hour)
	_, err := c.FetchText(ctx, "https://example.com/job")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingFetcher{err: errors.New("boom")}
	mem := store.NewMemory()
	c := NewCachedFetcher(next, mem, 0, nil)

	_, err := c.FetchText(ctx, "https://example.com/job")
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
}

func TestCachedFetcher_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := &countingFetcher{text: "posting"}
	c := NewCachedFetcher(next, store.NewMemory(), time.Hour, nil)

	_, _ = c.FetchText(ctx, "https://example.com/job")
	require.NoError(t, c.Invalidate(ctx, "https://example.com/job"))
	_, _ = c.FetchText(ctx, "https://example.com/job")

	assert.Equal(t, 2, next.calls)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://example.com/a")
	assert.NotEqual(t, a, CacheKey("https://example.com/b"))
	assert.Equal(t, a, CacheKey("https://example.com/a"))
	assert.Contains(t, a, "resume_matcher.fetch_cache.")
}
