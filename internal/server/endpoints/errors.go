package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackzampolin/regdesk/internal/auth"
	"github.com/jackzampolin/regdesk/internal/dashboard"
	"github.com/jackzampolin/regdesk/internal/export"
	"github.com/jackzampolin/regdesk/internal/gateway"
	"github.com/jackzampolin/regdesk/internal/session"
	"github.com/jackzampolin/regdesk/internal/svcctx"
)

// Error kinds reported in ErrorResponse.Kind.
const (
	KindPrecondition   = "precondition"
	KindNotFound       = "not_found"
	KindConflict       = "conflict"
	KindAuthentication = "authentication"
	KindCatalog        = "catalog"
	KindTimeout        = "timeout"
	KindConnection     = "connection"
	KindService        = "service"
	KindEmptyResult    = "empty_result"
	KindInternal       = "internal"
)

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   any    `json:"upstream_body,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFailure maps a domain error to an HTTP status and error kind.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	if status >= 500 {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		}
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}

	var serviceErr *gateway.ServiceError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, dashboard.ErrUnknownDocument):
		resp.Kind = KindNotFound
		return http.StatusNotFound, resp

	case errors.Is(err, dashboard.ErrNoSelection),
		errors.Is(err, dashboard.ErrNoValidNumbers),
		errors.Is(err, gateway.ErrEmptySelection):
		resp.Kind = KindPrecondition
		return http.StatusBadRequest, resp

	case errors.Is(err, session.ErrAnalysisInProgress),
		errors.Is(err, session.ErrSelectionChanged),
		errors.Is(err, export.ErrNoResult):
		resp.Kind = KindConflict
		return http.StatusConflict, resp

	case errors.Is(err, auth.ErrAuthentication):
		resp.Kind = KindAuthentication
		var authErr *auth.AuthError
		if errors.As(err, &authErr) && authErr.StatusCode != 0 {
			resp.UpstreamStatus = authErr.StatusCode
		}
		return http.StatusBadGateway, resp

	case errors.Is(err, gateway.ErrRequestTimeout):
		resp.Kind = KindTimeout
		return http.StatusGatewayTimeout, resp

	case errors.Is(err, gateway.ErrConnection):
		resp.Kind = KindConnection
		return http.StatusBadGateway, resp

	case errors.Is(err, gateway.ErrCatalogFetch):
		resp.Kind = KindCatalog
		if errors.As(err, &serviceErr) {
			resp.UpstreamStatus = serviceErr.StatusCode
		}
		return http.StatusBadGateway, resp

	case errors.As(err, &serviceErr):
		resp.Kind = KindService
		resp.UpstreamStatus = serviceErr.StatusCode
		resp.UpstreamBody = serviceErr.Body
		if resp.UpstreamBody == nil && serviceErr.RawBody != "" {
			resp.UpstreamBody = serviceErr.RawBody
		}
		return http.StatusBadGateway, resp

	case errors.Is(err, dashboard.ErrEmptyResult):
		resp.Kind = KindEmptyResult
		return http.StatusBadGateway, resp
	}

	resp.Kind = KindInternal
	return http.StatusInternalServerError, resp
}
