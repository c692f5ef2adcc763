// Package fetch downloads translation resources from the remote translation
// API, retrying transient failures with exponential backoff.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/internal/cache"
	"github.com/versekit/versekit/internal/logging"
)

// DefaultBaseURL is the translation API used when none is configured.
const DefaultBaseURL = "https://api.quran.com/api/v4"

// Result is a fetched response body.
type Result struct {
	URL      string
	Body     []byte
	Hash     string // SHA-256 of body
	Attempts int
	Cached   bool
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

// Unwrap maps 404 to errors.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return errors.ErrNotFound
	}
	return nil
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config configures the fetcher.
type Config struct {
	BaseURL        string        // Default: DefaultBaseURL.
	Timeout        time.Duration // Per-request timeout. Default: 30s.
	MaxBytes       int64         // Max response body size. Default: 32MB.
	UserAgent      string
	MaxAttempts    int           // Default: 4.
	InitialBackoff time.Duration // Default: 500ms, doubled after each failure.
	MaxBackoff     time.Duration // Default: 8s.
	CacheTTL       time.Duration // Default: 10m. Negative disables the cache.
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 32 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "versekit/1.0"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 10 * time.Minute
	}
}

// Fetcher performs GET requests against the translation API.
type Fetcher struct {
	client *http.Client
	config Config
	cache  *cache.TTLCache[string, []byte]
	sleep  func(context.Context, time.Duration) error
}

// New creates a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	cfg.defaults()
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewValidation("base_url", fmt.Sprintf("%q is not an http(s) URL", cfg.BaseURL))
	}
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		cache:  cache.New[string, []byte](cfg.CacheTTL),
		sleep:  sleepContext,
	}, nil
}

// TranslationURL is the endpoint of the translation resource id.
func (f *Fetcher) TranslationURL(id int) string {
	return f.config.BaseURL + "/quran/translations/" + strconv.Itoa(id)
}

// TranslatorsURL is the endpoint listing available translations.
func (f *Fetcher) TranslatorsURL() string {
	return f.config.BaseURL + "/resources/translations"
}

// Translation fetches the translation resource id.
func (f *Fetcher) Translation(ctx context.Context, id int) (*Result, error) {
	if id < 1 {
		return nil, errors.NewValidation("id", fmt.Sprintf("translation id must be positive, got %d", id))
	}
	return f.Get(ctx, f.TranslationURL(id))
}

// Translators fetches the list of available translations.
func (f *Fetcher) Translators(ctx context.Context) (*Result, error) {
	return f.Get(ctx, f.TranslatorsURL())
}

// Get fetches rawURL, retrying transport errors, 429 and 5xx responses.
// Successful bodies are cached by URL; expired entries are dropped on each
// store.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Result, error) {
	if body, ok := f.cache.Get(rawURL); ok {
		return newResult(rawURL, body, 0, true), nil
	}

	var lastErr error
	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		body, retryAfter, err := f.once(ctx, rawURL)
		if err == nil {
			f.cache.Prune()
			f.cache.Set(rawURL, body)
			return newResult(rawURL, body, attempt, false), nil
		}
		lastErr = err
		if !retryable(err) || attempt == f.config.MaxAttempts {
			break
		}

		wait := f.backoff(attempt)
		if retryAfter > wait {
			wait = min(retryAfter, f.config.MaxBackoff)
		}
		logging.FetchAttempt(rawURL, attempt, wait, err)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) once(ctx context.Context, rawURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, 0, errors.NewValidation("body", fmt.Sprintf("response from %s exceeds %d bytes", rawURL, f.config.MaxBytes))
	}
	return body, 0, nil
}

// backoff returns the wait after the given failed attempt.
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.config.InitialBackoff
	for i := 1; i < attempt && d < f.config.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, f.config.MaxBackoff)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ve *errors.ValidationError
	return !errors.As(err, &ve)
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func newResult(rawURL string, body []byte, attempts int, cached bool) *Result {
	h := sha256.Sum256(body)
	return &Result{
		URL:      rawURL,
		Body:     body,
		Hash:     fmt.Sprintf("%x", h),
		Attempts: attempts,
		Cached:   cached,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
