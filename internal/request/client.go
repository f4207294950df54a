package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxDelay = 30 * time.Second

// Policy bounds the retry behaviour of a Client. MaxAttempts counts the
// first try, so MaxAttempts = 1 performs no retry.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return p
}

// Delay returns the wait before retry number attempt (1-based). It grows
// exponentially from BaseDelay and is capped, so it is monotonically
// non-decreasing in the attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}

// Options describes a single logical call
type Options struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Client wraps outbound HTTP calls with a per-attempt timeout,
// retry-with-backoff on transient failures, and typed response validation.
// It performs no caching and has no side effects beyond the network call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     Policy
	validate   *validator.Validate
	sleep      func(context.Context, time.Duration) error
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// withSleep replaces the retry wait, used by tests to observe delays
func withSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// New creates a Client rooted at baseURL
func New(baseURL string, policy Policy, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		policy:     policy.withDefaults(),
		validate:   validator.New(),
		sleep:      sleepCtx,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the client's retry policy
func (c *Client) Policy() Policy {
	return c.policy
}

// Do performs the call described by opts, decodes the JSON response into out
// and validates its shape. Transient failures are retried up to the policy
// limit with exponential backoff; the last error is surfaced when attempts
// are exhausted. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, opts Options, out any) error {
	var body []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("request: marshal body: %w", err)
		}
		body = b
	}

	target := c.target(opts)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.policy.Delay(attempt-1)); err != nil {
				return err
			}
		}

		err := c.attempt(ctx, opts, target, body, out)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return err
		}

		c.logger.Warn().
			Str("url", target).
			Int("attempt", attempt).
			Err(err).
			Msg("transient request failure")
		lastErr = err
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, opts Options, target string, body []byte, out any) error {
	// Wall-clock timeout per attempt, not across retries.
	ctx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, reader)
	if err != nil {
		return fmt.Errorf("request: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, URL: target, Body: string(buf)}
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ValidationError{URL: target, Err: err}
	}
	if err := c.validateShape(out); err != nil {
		return &ValidationError{URL: target, Err: err}
	}
	return nil
}

// validateShape runs struct tag validation over the decoded value. Slices
// are validated per element so array-shaped endpoints get the same checks.
func (c *Client) validateShape(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			for elem.Kind() == reflect.Pointer {
				if elem.IsNil() {
					return nil
				}
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				return nil
			}
			if err := c.validate.Struct(elem.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) target(opts Options) string {
	target := c.baseURL + "/" + strings.TrimLeft(opts.Path, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}
	return target
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
