package ats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (compatible; HealthcareJobOrganizer/1.0)"
	defaultTimeout     = 20 * time.Second
	defaultRate        = 2.0
	defaultBurst       = 2
	defaultBaseBackoff = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
	maxBodyBytes       = 32 << 20
)

// ClientConfig tunes the shared board client. Zero values take defaults;
// MaxRetries of zero means a single attempt.
type ClientConfig struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	BaseBackoff       time.Duration
}

// Client issues rate-limited JSON GETs with retry on transient failures.
// One limiter is kept per host.
type Client struct {
	http   *http.Client
	cfg    ClientConfig
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient builds a client from cfg
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetJSON fetches rawURL and decodes the body into dest. 429 and 5xx
// responses and transport errors are retried with exponential backoff.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dest any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid board url %q: %w", rawURL, err)
	}
	limiter := c.limiter(u.Host)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt, lastErr)
			c.logger.Warn("Retrying board request",
				slog.String("url", rawURL),
				slog.Int("attempt", attempt+1),
				slog.Duration("retry_after", delay),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("board request canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		lastErr = c.do(ctx, rawURL, dest)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("board request failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, rawURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("http GET: %w", err)
		}
		return &RetryableError{Err: fmt.Errorf("http GET: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		statusErr := &StatusError{
			Code:       resp.StatusCode,
			URL:        rawURL,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if statusErr.Retryable() {
			return &RetryableError{Err: statusErr}
		}
		return statusErr
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	delay := c.cfg.BaseBackoff << (attempt - 1)

	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && statusErr.RetryAfter > delay {
		delay = statusErr.RetryAfter
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.cfg.RequestsPerSecond), c.cfg.Burst)
		c.limiters[host] = l
	}
	return l
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
