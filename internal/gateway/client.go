// Package gateway is the Remote Gateway: the only component that talks to
// the forum backend.
//
// Every call returns a decoded payload or an *apperror.AppError classified as
// network, unauthorized, validation, not_found, server or unknown, carrying
// the backend's message when it sent one. The stores never see HTTP.
//
// WIRE FORMAT:
// The backend wraps every response in an envelope:
//
//	{"success": true,  "data": {"question": {...}}}
//	{"success": false, "message": "Title is required"}
//
// so each typed method decodes the envelope first and then its own "data" shape.
//
// Repeated unauthorized answers are surfaced to the caller as-is. The gateway
// does not force a logout on credential expiry; see DESIGN.md.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/qaforum/internal/apperror"
)

// maxResponseBytes bounds how much of a response body we buffer.
const maxResponseBytes = 4 << 20

// Config holds gateway configuration.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// Timeout bounds each request. Zero means the transport default (none).
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
	// Credentials supplies the bearer token. May be nil for an anonymous client.
	Credentials CredentialSource
	// Transport is the underlying round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	// Registerer receives the gateway's Prometheus collectors. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Client issues typed backend requests.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics

	// background tracks fire-and-forget calls (logout) so Close can wait for them.
	background sync.WaitGroup
}

// New creates a Client. The base URL must be absolute.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("gateway: base URL must be absolute http(s), got %q", cfg.BaseURL)
	}

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &Client{
		baseURL: base,
		timeout: cfg.Timeout,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &bearerTransport{
				base:        rt,
				credentials: cfg.Credentials,
				userAgent:   cfg.UserAgent,
			},
		},
		logger:  logger,
		metrics: newMetrics(cfg.Registerer),
	}, nil
}

// Close waits for outstanding background calls to finish.
func (c *Client) Close() {
	c.background.Wait()
}

// envelope is the backend's response wrapper. Success is a pointer so a
// body that omits it is not read as a failure.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// do performs one request. op is a low-cardinality name for logs and metrics
// ("questions.get"), path is relative to the base URL. in is JSON-encoded
// when non-nil; out receives the envelope's data when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperror.Unknown("could not encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperror.Unknown("could not build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.finish(op, method, path, 0, time.Since(start), apperror.KindNetwork)
		return apperror.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindNetwork)
		return apperror.Network(err)
	}

	var env envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperror.FromStatus(resp.StatusCode, env.message())
		c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindOf(appErr))
		return appErr
	}

	// a 2xx that still reports failure in its envelope
	if decodeErr == nil && env.Success != nil && !*env.Success {
		msg := env.message()
		if msg == "" {
			msg = "the server reported a failure"
		}
		appErr := apperror.FromStatus(resp.StatusCode, msg)
		c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindOf(appErr))
		return appErr
	}

	if out != nil {
		if decodeErr != nil {
			c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindUnknown)
			return apperror.Unknown("could not decode response", decodeErr)
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindUnknown)
			return apperror.Unknown("response is missing data", errors.New(op))
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.finish(op, method, path, resp.StatusCode, time.Since(start), apperror.KindUnknown)
			return apperror.Unknown("could not decode response data", err)
		}
	}

	c.finish(op, method, path, resp.StatusCode, time.Since(start), "")
	return nil
}

func (c *Client) finish(op, method, path string, status int, d time.Duration, kind apperror.Kind) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	c.metrics.observe(op, outcome, d)

	c.logger.Debug("gateway request",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", d),
		slog.String("outcome", outcome),
	)
}
