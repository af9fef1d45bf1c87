package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTokenServer(t *testing.T, hits *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "client" {
			t.Errorf("client_id = %q", got)
		}
		if got := r.PostForm.Get("client_secret"); got != "secret" {
			t.Errorf("client_secret = %q", got)
		}
		if got := r.PostForm.Get("scope"); got != "docs/read" {
			t.Errorf("scope = %q", got)
		}

		resp := map[string]any{
			"access_token": "token-" + string(rune('0'+n)),
			"token_type":   "Bearer",
		}
		if expiresIn > 0 {
			resp["expires_in"] = expiresIn
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func testCreds(url string) Credentials {
	return Credentials{
		TokenURL:     url,
		ClientID:     "client",
		ClientSecret: "secret",
		Scope:        "docs/read",
	}
}

func TestTokenSource_CachesToken(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, 3600)
	defer server.Close()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	ts := NewTokenSource(testCreds(server.URL), WithClock(clock.Now))

	first, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	clock.Advance(30 * time.Minute)
	second, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	if first != second {
		t.Errorf("expected cached token, got %q then %q", first, second)
	}
	if hits.Load() != 1 {
		t.Errorf("token endpoint hits = %d, want 1", hits.Load())
	}
	want := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	if !ts.Expiry().Equal(want) {
		t.Errorf("Expiry() = %v, want %v", ts.Expiry(), want)
	}
}

func TestTokenSource_RefreshesInsideSafetyMargin(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, 3600)
	defer server.Close()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	ts := NewTokenSource(testCreds(server.URL), WithClock(clock.Now))

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// 55 minutes in: exactly at expiry minus the safety margin.
	clock.Advance(55 * time.Minute)
	tok, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "token-2" {
		t.Errorf("Token() = %q, want token-2", tok)
	}
	if hits.Load() != 2 {
		t.Errorf("token endpoint hits = %d, want 2", hits.Load())
	}
}

func TestTokenSource_DefaultExpiresIn(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, 0)
	defer server.Close()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	ts := NewTokenSource(testCreds(server.URL), WithClock(clock.Now))

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if want := start.Add(DefaultExpiresIn); !ts.Expiry().Equal(want) {
		t.Errorf("Expiry() = %v, want %v", ts.Expiry(), want)
	}
}

func TestTokenSource_Invalidate(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, 3600)
	defer server.Close()

	ts := NewTokenSource(testCreds(server.URL))
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	ts.Invalidate()
	if !ts.Expiry().IsZero() {
		t.Error("expected zero expiry after Invalidate")
	}
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("token endpoint hits = %d, want 2", hits.Load())
	}
}

func TestTokenSource_Failures(t *testing.T) {
	t.Run("rejected credentials", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
		}))
		defer server.Close()

		ts := NewTokenSource(testCreds(server.URL))
		_, err := ts.Token(context.Background())
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected *AuthError, got %T", err)
		}
		if authErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", authErr.StatusCode)
		}
		if authErr.Body != `{"error":"invalid_client"}` {
			t.Errorf("Body = %q", authErr.Body)
		}
		if hits.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", hits.Load())
		}
		if !ts.Expiry().IsZero() {
			t.Error("cache should stay empty after failure")
		}
	})

	t.Run("missing access token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"token_type":"Bearer"}`))
		}))
		defer server.Close()

		ts := NewTokenSource(testCreds(server.URL))
		if _, err := ts.Token(context.Background()); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		ts := NewTokenSource(testCreds(url))
		if _, err := ts.Token(context.Background()); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("failure keeps previous token", func(t *testing.T) {
		var fail atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"access_token":"good","expires_in":3600}`))
		}))
		defer server.Close()

		clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		ts := NewTokenSource(testCreds(server.URL), WithClock(clock.Now))
		if _, err := ts.Token(context.Background()); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		expiry := ts.Expiry()

		fail.Store(true)
		clock.Advance(58 * time.Minute)
		if _, err := ts.Token(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if !ts.Expiry().Equal(expiry) {
			t.Errorf("expiry changed after failure: %v", ts.Expiry())
		}
	})
}
