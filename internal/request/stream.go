package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DoStream performs the call described by opts and hands the raw response
// body back for the caller to drain. The retry envelope covers establishing
// the response (connection failures and transient statuses); no per-attempt
// deadline is set on the context because the stream outlives this call, so
// header latency should be bounded via the HTTP client's transport.
func (c *Client) DoStream(ctx context.Context, opts Options) (io.ReadCloser, error) {
	var body []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("request: marshal body: %w", err)
		}
		body = b
	}

	target := c.target(opts)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.policy.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		rc, err := c.streamAttempt(ctx, opts, target, body)
		if err == nil {
			return rc, nil
		}
		if !shouldRetry(err) {
			return nil, err
		}

		c.logger.Warn().
			Str("url", target).
			Int("attempt", attempt).
			Err(err).
			Msg("transient stream open failure")
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) streamAttempt(ctx context.Context, opts Options, target string, body []byte) (io.ReadCloser, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("request: create request: %w", err)
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
		return nil, fmt.Errorf("request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target, Body: string(buf)}
	}

	return resp.Body, nil
}
