package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "duplicate", Kind: "duplicate"})
	}))
	defer server.Close()

	err := NewClient(server.URL).Post(context.Background(), "/x", map[string]string{"a": "b"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Response.Kind != "duplicate" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestClient_GetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "not here", http.StatusNotFound)
			return
		}
		w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	data, err := c.GetBytes(context.Background(), "/file")
	if err != nil || string(data) != "%PDF-1.7" {
		t.Errorf("GetBytes() = %q, %v", data, err)
	}

	_, err = c.GetBytes(context.Background(), "/missing")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Response.Error != "not here" {
		t.Errorf("expected plain-text error, got %v", err)
	}
}

func TestClient_WaitReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.WaitReady(context.Background(), 5, time.Millisecond); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	calls.Store(-100)
	if err := c.WaitReady(context.Background(), 2, time.Millisecond); err == nil {
		t.Error("expected WaitReady() to give up")
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"status": "ok"}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatalf("OutputTo(json) error = %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatalf("OutputTo(yaml) error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "status: ok" {
		t.Errorf("yaml output = %q", buf.String())
	}

	if err := OutputTo(&buf, "xml", data); err == nil {
		t.Error("expected error for unknown format")
	}
}

type fakeEndpoint struct {
	name  string
	group string
}

func (f fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/" + f.name, func(w http.ResponseWriter, r *http.Request) {}
}
func (f fakeEndpoint) RequiresInit() bool { return f.group != "" }
func (f fakeEndpoint) Group() string      { return f.group }
func (f fakeEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: f.name}
}

func TestRegistry_BuildCommands(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEndpoint{name: "health"})
	r.Register(fakeEndpoint{name: "get", group: "sessions"})
	r.Register(fakeEndpoint{name: "create", group: "sessions"})

	cmd := r.BuildCommands(func() string { return "" })
	if len(cmd.Commands()) != 2 {
		t.Fatalf("top-level commands = %d, want 2", len(cmd.Commands()))
	}
	sub, _, err := cmd.Find([]string{"sessions", "create"})
	if err != nil || sub.Name() != "create" {
		t.Errorf("Find(sessions create) = %v, %v", sub, err)
	}

	var wrapped atomic.Int32
	mux := http.NewServeMux()
	r.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
		wrapped.Add(1)
		return h
	})
	if wrapped.Load() != 2 {
		t.Errorf("init middleware applied %d times, want 2", wrapped.Load())
	}
}

func TestOutputToFile(t *testing.T) {
	path := t.TempDir() + "/out.json"
	if err := OutputToFile(map[string]int{"n": 1}, path); err != nil {
		t.Fatalf("OutputToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"n": 1`) {
		t.Errorf("file content = %q", data)
	}
}
