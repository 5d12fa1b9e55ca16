package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jonathan/resume-matcher/internal/store"
)

// DefaultCacheTTL is how long a fetched posting is reused.
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "resume_matcher.fetch_cache."

type cachedPage struct {
	URL       string `json:"url"`
	Text      string `json:"text"`
	FetchedAt int64  `json:"fetched_at"`
}

// CachedFetcher wraps a Fetcher with a TTL cache kept in a store.Store, so
// re-analyzing the same posting does not refetch it.
type CachedFetcher struct {
	next   Fetcher
	store  store.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewCachedFetcher returns a cache in front of next. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedFetcher(next Fetcher, s store.Store, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{next: next, store: s, ttl: ttl, now: time.Now, logger: logger}
}

// FetchText implements Fetcher. Cache failures are logged and never fail the
// fetch.
func (f *CachedFetcher) FetchText(ctx context.Context, urlStr string) (string, error) {
	key := CacheKey(urlStr)

	if raw, ok, err := f.store.Get(ctx, key); err != nil {
		f.logger.Warn("fetch cache read failed", "url", urlStr, "error", err)
	} else if ok {
		var page cachedPage
		if err := json.Unmarshal([]byte(raw), &page); err == nil && page.URL == urlStr &&
			f.now().Sub(time.UnixMilli(page.FetchedAt)) < f.ttl {
			f.logger.Debug("fetch cache hit", "url", urlStr)
			return page.Text, nil
		}
	}

	text, err := f.next.FetchText(ctx, urlStr)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(cachedPage{URL: urlStr, Text: text, FetchedAt: f.now().UnixMilli()})
	if err == nil {
		if err := f.store.Set(ctx, key, string(data)); err != nil {
			f.logger.Warn("fetch cache write failed", "url", urlStr, "error", err)
		}
	}
	return text, nil
}

// Invalidate drops the cached copy of urlStr.
func (f *CachedFetcher) Invalidate(ctx context.Context, urlStr string) error {
	return f.store.Remove(ctx, CacheKey(urlStr))
}

// CacheKey is the store key for a cached URL.
func CacheKey(urlStr string) string {
	sum := sha256.Sum256([]byte(urlStr))
	return cacheKeyPrefix + hex.EncodeToString(sum[:8])
}
