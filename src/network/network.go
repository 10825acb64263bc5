package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/logger"

	"github.com/sony/gobreaker"
)

// ClientConfig bundles the HTTP and circuit breaker settings.
type ClientConfig struct {
	Timeout         time.Duration
	UserAgent       string
	BreakerName     string
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Client talks to the readings service. Each call is a single bounded
// request; there are no retries. Consecutive failures open the breaker so a
// dead service is not hammered during a multi-day batch.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Logger    *logger.Logger
	breaker   *gobreaker.CircuitBreaker
}

// -----------------------------------------------------------------------------

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 3
	}

	settings := gobreaker.Settings{
		Name:    cfg.BreakerName,
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warning("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Logger:    log,
		breaker:   gobreaker.NewCircuitBreaker(settings),
	}
}

// -----------------------------------------------------------------------------

// GetJSON performs a GET with query parameters and decodes a 2xx JSON body
// into out. Connection failures are TransportError, other statuses
// HTTPStatusError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return helpers.NewTransportError("invalid url", err)
	}
	q := reqURL.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	reqURL.RawQuery = q.Encode()

	body, err := c.do(ctx, http.MethodGet, reqURL.String(), nil, http.StatusOK)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return helpers.NewTransportError("decode response from "+reqURL.Path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// PostJSON sends payload as JSON and expects the given status.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, expect int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, rawURL, data, expect)
	return err
}

// -----------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, expect int) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, helpers.NewTransportError("build request", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, helpers.NewTransportError(method+" "+rawURL, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, helpers.NewTransportError("read response body", err)
		}

		if !statusOK(resp.StatusCode, expect) {
			return nil, helpers.NewHTTPStatusError(rawURL, resp.StatusCode)
		}
		return body, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, helpers.NewTransportError("circuit open for "+rawURL, err)
		}
		return nil, err
	}

	body, _ := result.([]byte)
	return body, nil
}

// statusOK accepts any 2xx when 200 is expected, otherwise the exact code.
func statusOK(got, expect int) bool {
	if expect == http.StatusOK {
		return got >= 200 && got < 300
	}
	return got == expect
}
