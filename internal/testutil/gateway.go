// Package testutil provides a fake API Gateway and server helpers for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackzampolin/regdesk/internal/config"
)

// Gateway fakes the token, catalog and generate endpoints of the
// API Gateway. Responses can be changed while the server runs.
type Gateway struct {
	*httptest.Server

	TokenHits   atomic.Int32
	CatalogHits atomic.Int32
	SubmitHits  atomic.Int32

	mu           sync.Mutex
	tokenStatus  int
	catalog      string
	resultStatus int
	result       string
	submitted    []string
}

// NewGateway starts a fake gateway serving catalog and a successful result.
// It is closed when the test ends.
func NewGateway(t *testing.T, catalog, result string) *Gateway {
	t.Helper()
	g := &Gateway{
		tokenStatus:  http.StatusOK,
		catalog:      catalog,
		resultStatus: http.StatusOK,
		result:       result,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", g.token)
	mux.HandleFunc("GET /documents", g.documents)
	mux.HandleFunc("POST /generate", g.generate)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

// SetCatalog replaces the catalog body.
func (g *Gateway) SetCatalog(body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.catalog = body
}

// SetResult replaces the generate status and body.
func (g *Gateway) SetResult(status int, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resultStatus = status
	g.result = body
}

// SetTokenStatus makes the token endpoint answer with status.
func (g *Gateway) SetTokenStatus(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokenStatus = status
}

// Submitted returns the document numbers of the last generate request.
func (g *Gateway) Submitted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitted
}

// Config returns a complete config pointing at the fake gateway.
func (g *Gateway) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.AuthURL = g.URL + "/oauth2/token"
	cfg.API.DocumentsURL = g.URL + "/documents"
	cfg.API.GenerateURL = g.URL + "/generate"
	cfg.API.TimeoutSeconds = 5
	cfg.Cognito.ClientID = "client"
	cfg.Cognito.ClientSecret = "secret"
	cfg.Cognito.Scope = "docs/read"
	return cfg
}

func (g *Gateway) token(w http.ResponseWriter, r *http.Request) {
	g.TokenHits.Add(1)
	g.mu.Lock()
	status := g.tokenStatus
	g.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte(`{"error":"invalid_client"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
}

func (g *Gateway) documents(w http.ResponseWriter, r *http.Request) {
	g.CatalogHits.Add(1)
	g.mu.Lock()
	body := g.catalog
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (g *Gateway) generate(w http.ResponseWriter, r *http.Request) {
	g.SubmitHits.Add(1)
	var req struct {
		DocumentNumbers []string `json:"document_numbers"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	g.mu.Lock()
	g.submitted = req.DocumentNumbers
	status, body := g.resultStatus, g.result
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
