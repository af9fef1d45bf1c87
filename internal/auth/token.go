// Package auth obtains and caches API Gateway access tokens using the
// OAuth2 client-credentials grant.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultExpiresIn is assumed when the token response omits expires_in.
	DefaultExpiresIn = 3600 * time.Second

	// SafetyMargin is subtracted from the expiry when deciding whether a
	// cached token can still be used.
	SafetyMargin = 5 * time.Minute

	// DefaultTimeout bounds the token request when no HTTP client is given.
	DefaultTimeout = 30 * time.Second
)

// ErrAuthentication is the sentinel for every token acquisition failure.
var ErrAuthentication = errors.New("authentication failed")

// AuthError describes a failed token request.
// StatusCode is zero when the request never got a response.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return "authentication failed: " + e.Body
}

// Unwrap exposes both ErrAuthentication and the underlying cause.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthentication}
	}
	return []error{ErrAuthentication, e.Err}
}

// Credentials configures the client-credentials grant.
type Credentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource caches one access token and refreshes it when it is absent
// or within SafetyMargin of expiring. Safe for concurrent use.
type TokenSource struct {
	creds  Credentials
	client *http.Client
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// Option configures a TokenSource.
type Option func(*TokenSource)

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(ts *TokenSource) { ts.client = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(ts *TokenSource) { ts.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ts *TokenSource) { ts.logger = l }
}

// NewTokenSource creates a token source for the given credentials.
func NewTokenSource(creds Credentials, opts ...Option) *TokenSource {
	ts := &TokenSource{
		creds:  creds,
		client: &http.Client{Timeout: DefaultTimeout},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Token returns a valid access token, requesting a new one only when the
// cached token is missing or about to expire. On failure the cache is left
// untouched and no retry is attempted.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	issuedAt := ts.now()
	if ts.token != "" && issuedAt.Before(ts.expiry.Add(-SafetyMargin)) {
		return ts.token, nil
	}

	resp, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}

	expiresIn := DefaultExpiresIn
	if resp.ExpiresIn > 0 {
		expiresIn = time.Duration(resp.ExpiresIn) * time.Second
	}

	ts.token = resp.AccessToken
	ts.expiry = issuedAt.Add(expiresIn)
	ts.logger.Debug("access token refreshed", "expires_at", ts.expiry)

	return ts.token, nil
}

// Expiry returns the expiry of the cached token (zero if none).
func (ts *TokenSource) Expiry() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.expiry
}

// Invalidate drops the cached token so the next Token call fetches a new one.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiry = time.Time{}
}

// fetch performs the client-credentials exchange.
func (ts *TokenSource) fetch(ctx context.Context) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"scope":         {ts.creds.Scope},
		"client_id":     {ts.creds.ClientID},
		"client_secret": {ts.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		ts.logger.Warn("token request rejected", "status", resp.StatusCode)
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body), Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: "response contained no access_token"}
	}

	return &tr, nil
}
