// Package gateway talks to the API Gateway that fronts the document catalog
// and the analysis service. Every call is a single attempt bounded by the
// configured timeout.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Tokener supplies bearer tokens. *auth.TokenSource satisfies it.
type Tokener interface {
	Token(ctx context.Context) (string, error)
}

type invalidator interface {
	Invalidate()
}

// Config configures a gateway Client.
type Config struct {
	DocumentsURL string
	GenerateURL  string
	Timeout      time.Duration
	Tokens       Tokener
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client calls the catalog and analysis endpoints.
type Client struct {
	documentsURL string
	generateURL  string
	timeout      time.Duration
	tokens       Tokener
	http         *http.Client
	logger       *slog.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		documentsURL: cfg.DocumentsURL,
		generateURL:  cfg.GenerateURL,
		timeout:      timeout,
		tokens:       cfg.Tokens,
		http:         httpClient,
		logger:       logger,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// do sends req with a bearer token and reads the whole body.
// Transport failures are classified as ErrRequestTimeout or ErrConnection.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (*response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", "method", method, "url", url, "error", err)
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	// A rejected bearer token is dropped so the next call fetches a fresh one.
	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.tokens.(invalidator); ok {
			inv.Invalidate()
			c.logger.Warn("gateway rejected token, cached token dropped", "url", url)
		}
	}

	c.logger.Debug("gateway request",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return &response{status: resp.StatusCode, body: data}, nil
}

// classify maps a transport error to ErrRequestTimeout or ErrConnection.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}
