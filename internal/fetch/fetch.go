// Package fetch retrieves job postings by URL and reduces them to their main
// text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeMatcher/1.0)"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 10 << 20

// DefaultRequestInterval spaces out requests made by one Client.
const DefaultRequestInterval = 500 * time.Millisecond

// Fetcher resolves a job posting URL to plain text.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// RenderFunc renders a page in a browser and returns its HTML.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// Client is the default Fetcher: a plain HTTP GET, with an optional headless
// browser pass for pages whose static HTML carries too little text.
type Client struct {
	Options    *Options
	UseBrowser bool
	Render     RenderFunc
	Limiter    *rate.Limiter // nil means unthrottled
	Logger     *slog.Logger
}

// NewClient returns a Client using DefaultOptions and the chromedp renderer.
func NewClient(useBrowser bool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Options:    DefaultOptions(),
		UseBrowser: useBrowser,
		Render:     WithBrowser,
		Limiter:    rate.NewLimiter(rate.Every(DefaultRequestInterval), 2),
		Logger:     logger,
	}
}

// FetchText implements Fetcher.
func (c *Client) FetchText(ctx context.Context, urlStr string) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	platform := DetectPlatform(urlStr)
	selectors := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", &Error{URL: urlStr, Message: "request throttled", Cause: err}
		}
	}

	result, err := URL(ctx, urlStr, c.Options)
	if err != nil {
		return "", err
	}

	text, err := ExtractMainText(result.HTML, selectors, noise...)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}
	logger.Debug("fetched job posting", "url", urlStr, "platform", platform, "chars", len(text))

	if !ShouldUseBrowser(text) || !c.UseBrowser || c.Render == nil {
		if strings.TrimSpace(text) == "" {
			return "", &Error{URL: urlStr, Message: "page has no readable text"}
		}
		return text, nil
	}

	timeout := DefaultTimeout
	if c.Options != nil && c.Options.Timeout > 0 {
		timeout = c.Options.Timeout
	}
	logger.Info("static page too short, rendering in browser", "url", urlStr, "chars", len(text))
	html, err := c.Render(ctx, urlStr, timeout)
	if err != nil {
		if strings.TrimSpace(text) != "" {
			logger.Warn("browser rendering failed, using static text", "url", urlStr, "error", err)
			return text, nil
		}
		return "", &Error{URL: urlStr, Message: "browser rendering failed", Cause: err}
	}

	rendered, err := ExtractMainText(html, selectors, noise...)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to extract rendered text", Cause: err}
	}
	if len(rendered) < len(text) {
		rendered = text
	}
	if strings.TrimSpace(rendered) == "" {
		return "", &Error{URL: urlStr, Message: "page has no readable text"}
	}
	return rendered, nil
}

// URL retrieves HTML content from a URL.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:       urlStr,
			Message:   fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	return result, nil
}

// ExtractMainText parses HTML and returns the main body text.
// Noise elements are removed first; the first matching content selector wins,
// falling back to the body element.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	// Block elements are separated so adjacent paragraphs do not fuse words.
	mainContent.Find("p, li, h1, h2, h3, h4, h5, h6, div, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return cleanWhitespace(mainContent.Text()), nil
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// JobPostingSelectors returns selectors optimized for job board pages.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

func cleanWhitespace(text string) string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
