package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/regdesk/internal/auth"
	"github.com/jackzampolin/regdesk/internal/types"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) {
	return "", &auth.AuthError{StatusCode: http.StatusUnauthorized, Body: "denied"}
}

// countingToken records Invalidate calls.
type countingToken struct {
	invalidated atomic.Int32
}

func (c *countingToken) Token(context.Context) (string, error) { return "stale", nil }
func (c *countingToken) Invalidate()                           { c.invalidated.Add(1) }

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(Config{
		DocumentsURL: url + "/documents",
		GenerateURL:  url + "/generate",
		Timeout:      timeout,
		Tokens:       staticToken("tok"),
	})
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"2020029582 - RSASCM 074 ICCGSA.docx", "2020029582"},
		{"Sin numero.pdf", ""},
		{"123abc", "123"},
		{" 123 leading space", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractID(tt.name); got != tt.want {
				t.Errorf("ExtractID(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestClient_ListDocuments(t *testing.T) {
	t.Run("derives identifiers in order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("unexpected authorization: %s", got)
			}
			w.Write([]byte(`[
				{"NOMBRE_DOCUMENTO": "2020029582 - RSASCM 074 ICCGSA.docx", "OTRO": 1},
				{"NOMBRE_DOCUMENTO": "Sin numero.pdf"},
				"not an object",
				{"NOMBRE_DOCUMENTO": "77 - Resolucion.pdf"}
			]`))
		}))
		defer server.Close()

		docs, err := newTestClient(server.URL, time.Second).ListDocuments(context.Background())
		if err != nil {
			t.Fatalf("ListDocuments() error = %v", err)
		}

		want := []types.Document{
			{ID: "2020029582", Name: "2020029582 - RSASCM 074 ICCGSA.docx", Number: "2020029582"},
			{ID: "doc_1", Name: "Sin numero.pdf"},
			{ID: "doc_2"},
			{ID: "77", Name: "77 - Resolucion.pdf", Number: "77"},
		}
		if diff := cmp.Diff(want, docs); diff != "" {
			t.Errorf("ListDocuments() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-success status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"Forbidden"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).ListDocuments(context.Background())
		if !errors.Is(err, ErrCatalogFetch) {
			t.Fatalf("expected ErrCatalogFetch, got %v", err)
		}
		var se *ServiceError
		if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
			t.Errorf("expected wrapped 403 ServiceError, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"a list"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).ListDocuments(context.Background())
		if !errors.Is(err, ErrCatalogFetch) {
			t.Fatalf("expected ErrCatalogFetch, got %v", err)
		}
	})

	t.Run("authentication failure propagates", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		client := NewClient(Config{DocumentsURL: server.URL, Tokens: failingToken{}})
		_, err := client.ListDocuments(context.Background())
		if !errors.Is(err, auth.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
		if errors.Is(err, ErrCatalogFetch) {
			t.Error("authentication failure should not be reported as a catalog failure")
		}
		if hits.Load() != 0 {
			t.Errorf("catalog endpoint should not be called, got %d hits", hits.Load())
		}
	})
}

func TestClient_Submit(t *testing.T) {
	t.Run("posts document numbers", func(t *testing.T) {
		var received submitRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/generate" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type: %s", ct)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("unexpected authorization: %s", got)
			}
			json.NewDecoder(r.Body).Decode(&received)
			w.Write([]byte(`{"sections":{"conclusion":"Done"},"analysis_id":42}`))
		}))
		defer server.Close()

		raw, err := newTestClient(server.URL, time.Second).Submit(context.Background(), []string{"123", "456"})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if diff := cmp.Diff([]string{"123", "456"}, received.DocumentNumbers); diff != "" {
			t.Errorf("document_numbers mismatch (-want +got):\n%s", diff)
		}

		want := map[string]any{
			"sections":    map[string]any{"conclusion": "Done"},
			"analysis_id": json.Number("42"),
		}
		if diff := cmp.Diff(want, raw); diff != "" {
			t.Errorf("Submit() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty selection makes no request", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).Submit(context.Background(), nil)
		if !errors.Is(err, ErrEmptySelection) {
			t.Fatalf("expected ErrEmptySelection, got %v", err)
		}
		if hits.Load() != 0 {
			t.Errorf("expected no requests, got %d", hits.Load())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		_, err := newTestClient(server.URL, 50*time.Millisecond).Submit(context.Background(), []string{"1"})
		if !errors.Is(err, ErrRequestTimeout) {
			t.Fatalf("expected ErrRequestTimeout, got %v", err)
		}
		if errors.Is(err, ErrConnection) {
			t.Error("timeout should not be reported as a connection failure")
		}
	})

	t.Run("connection failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(url, time.Second).Submit(context.Background(), []string{"1"})
		if !errors.Is(err, ErrConnection) {
			t.Fatalf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("service error with json body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"lambda failed"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).Submit(context.Background(), []string{"1"})
		if !errors.Is(err, ErrService) {
			t.Fatalf("expected ErrService, got %v", err)
		}
		var se *ServiceError
		if !errors.As(err, &se) {
			t.Fatalf("expected *ServiceError, got %T", err)
		}
		if se.StatusCode != http.StatusBadGateway {
			t.Errorf("StatusCode = %d, want 502", se.StatusCode)
		}
		if diff := cmp.Diff(map[string]any{"error": "lambda failed"}, se.Body); diff != "" {
			t.Errorf("Body mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("service error with text body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, time.Second).Submit(context.Background(), []string{"1"})
		var se *ServiceError
		if !errors.As(err, &se) {
			t.Fatalf("expected *ServiceError, got %v", err)
		}
		if se.Body != nil {
			t.Errorf("Body = %v, want nil", se.Body)
		}
		if se.RawBody != "Internal Server Error" {
			t.Errorf("RawBody = %q", se.RawBody)
		}
	})
}

func TestClient_UnauthorizedDropsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	defer server.Close()

	tokens := &countingToken{}
	client := NewClient(Config{GenerateURL: server.URL, Tokens: tokens})

	_, err := client.Submit(context.Background(), []string{"1"})
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 ServiceError, got %v", err)
	}
	if got := tokens.invalidated.Load(); got != 1 {
		t.Errorf("Invalidate called %d times, want 1", got)
	}
}

func TestCheckContract(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"sections with entries", `{"sections":{"introduction":[{"text":"A"},"B"]}}`, false},
		{"flat mapping", `{"conclusion":"Done"}`, false},
		{"references", `{"sections":{},"references":[{"document_type":"Oficio"}]}`, false},
		{"section of wrong type", `{"sections":{"introduction":42}}`, true},
		{"not an object", `[1,2,3]`, true},
		{"empty object", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkContract([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("checkContract() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
