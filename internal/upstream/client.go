// Package upstream contains the HTTP clients for the services the feeds are
// built from: the pageview API, the REST page summary API and the MediaWiki
// action API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/metrics"
)

// ErrNoData is returned when an upstream service has nothing for the request,
// e.g. pageviews not yet published for a date.
var ErrNoData = errors.New("no data available")

// StatusError is returned for non-2xx upstream responses
type StatusError struct {
	Service    string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d from %s", e.Service, e.StatusCode, e.URL)
}

// maxBodySize caps how much of an upstream body is decoded
const maxBodySize = 8 << 20

// Client is the shared HTTP plumbing of the upstream clients
type Client struct {
	http      *http.Client
	limiter   *HostRateLimiter
	userAgent string
	retries   int
	retryBase time.Duration
	log       zerolog.Logger
}

// NewClient creates a Client from upstream settings
func NewClient(cfg config.UpstreamConfig, log zerolog.Logger) *Client {
	var limiter *HostRateLimiter
	if cfg.RateInterval > 0 {
		limiter = NewHostRateLimiter(cfg.RateInterval, cfg.RateBurst)
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		retries:   cfg.MaxRetries,
		retryBase: cfg.RetryInterval,
		log:       log.With().Str("component", "upstream").Logger(),
	}
}

// newRetryBackoff creates the backoff policy for transient upstream failures
func (c *Client) newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if c.retryBase > 0 {
		bo.InitialInterval = c.retryBase
	}
	bo.MaxInterval = 5 * time.Second
	bo.Multiplier = 2
	return bo
}

// getJSON issues a GET to rawURL and decodes the JSON body into out.
// A 404 maps to ErrNoData. Transport errors and 5xx/429 responses are retried
// up to the configured number of times.
func (c *Client) getJSON(ctx context.Context, service, rawURL string, headers http.Header, out any) error {
	var bo *backoff.ExponentialBackOff
	for attempt := 0; ; attempt++ {
		err := c.doJSON(ctx, service, rawURL, headers, out)
		if err == nil || attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			return err
		}
		if bo == nil {
			bo = c.newRetryBackoff()
		}
		delay := bo.NextBackOff()
		c.log.Warn().
			Err(err).
			Str("upstream", service).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Msg("Upstream request failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}
	}
}

// retryable reports whether err is worth another attempt
func retryable(err error) bool {
	if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// decodeError wraps a malformed upstream body
type decodeError struct {
	service string
	err     error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.service, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) doJSON(ctx context.Context, service, rawURL string, headers http.Header, out any) error {
	if c.limiter != nil {
		if err := c.limiter.WaitForHost(ctx, rawURL); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", service, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", service, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return fmt.Errorf("%s: request failed: %w", service, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(service, strconv.Itoa(resp.StatusCode)).Inc()

	c.log.Debug().
		Str("upstream", service).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream request completed")

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return fmt.Errorf("%s: %w", service, ErrNoData)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return &StatusError{Service: service, URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return &decodeError{service: service, err: err}
	}
	return nil
}

// expandDomain substitutes {domain} in a URL template and trims trailing slashes
func expandDomain(tpl, domain string) string {
	return strings.TrimRight(strings.ReplaceAll(tpl, "{domain}", domain), "/")
}

// Project strips the top-level domain from a site domain, e.g.
// "en.wikipedia.org" -> "en.wikipedia"
func Project(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}
