// Package api implements the REST client for the MerchBay shop backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/merchbay/storefront/internal/metrics"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// Client talks to the shop backend. The bearer token is settable at any
// time; the cart/session synchronizer owns its lifecycle.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.RWMutex
	token string
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond enables a client-side limiter when > 0.
	RequestsPerSecond float64
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// SetToken installs (or with "" clears) the bearer token used on requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// IsAuthError reports whether the response indicates an invalid or expired
// token.
func (e *StatusError) IsAuthError() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// IsAuthError reports whether err carries a 401/403 backend response.
func IsAuthError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.IsAuthError()
}

// do executes one request against the backend. A nil out discards the
// response body; otherwise the body is decoded as JSON into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(method, 0)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(method, resp.StatusCode)

	if resp.StatusCode >= 400 {
		respBody, truncated, readErr := readAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return fmt.Errorf("read error response: %w", readErr)
		}
		msg := errorMessage(respBody)
		if truncated {
			msg += "...(truncated)"
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	respBody, truncated, err := readAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if truncated {
		return fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. The
// backend usually returns {"error": "..."} but proxies in between may not.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if v := gjson.GetBytes(body, "error"); v.Exists() && v.String() != "" {
			return v.String()
		}
		if v := gjson.GetBytes(body, "message"); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}

func readAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
