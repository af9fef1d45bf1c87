package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/session"
	"github.com/jackzampolin/regdesk/internal/svcctx"
)

const sessionsGroup = "sessions"

// sessionFrom resolves the {id} path value to a session, writing the error
// response when it cannot.
func sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil, false
	}
	store := svcctx.SessionsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return nil, false
	}
	sess, err := store.Get(id)
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	return sess, true
}

// CreateSessionEndpoint handles POST /api/sessions.
type CreateSessionEndpoint struct{}

func (e *CreateSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions", e.handler
}

func (e *CreateSessionEndpoint) RequiresInit() bool { return false }
func (e *CreateSessionEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary	Create a session
//	@Tags		sessions
//	@Produce	json
//	@Success	201	{object}	session.Snapshot
//	@Router		/api/sessions [post]
func (e *CreateSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.SessionsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}
	sess := store.Create()
	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Info("session created", "session", sess.ID())
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (e *CreateSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp session.Snapshot
			if err := client.Post(cmd.Context(), "/api/sessions", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetSessionEndpoint handles GET /api/sessions/{id}.
type GetSessionEndpoint struct{}

func (e *GetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}", e.handler
}

func (e *GetSessionEndpoint) RequiresInit() bool { return false }
func (e *GetSessionEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary	Get session state
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	session.Snapshot
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id} [get]
func (e *GetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (e *GetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <session>",
		Short: "Show a session's selection, status and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp session.Snapshot
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteSessionEndpoint handles DELETE /api/sessions/{id}.
type DeleteSessionEndpoint struct{}

func (e *DeleteSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}", e.handler
}

func (e *DeleteSessionEndpoint) RequiresInit() bool { return false }
func (e *DeleteSessionEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary	Delete a session
//	@Tags		sessions
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id} [delete]
func (e *DeleteSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.SessionsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}
	if !store.Delete(r.PathValue("id")) {
		writeFailure(w, r, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/sessions/"+args[0], nil); err != nil {
				return err
			}
			return api.Output(map[string]string{"deleted": args[0]})
		},
	}
}

// SessionDocumentsEndpoint handles GET /api/sessions/{id}/documents.
type SessionDocumentsEndpoint struct{}

func (e *SessionDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/documents", e.handler
}

func (e *SessionDocumentsEndpoint) RequiresInit() bool { return true }
func (e *SessionDocumentsEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary		Load the catalog into a session
//	@Description	Returns the session's cached catalog, fetching it when empty or when refresh=true. A fetch failure yields an empty list and a warning.
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			refresh	query		bool	false	"Force a catalog reload"
//	@Success		200		{object}	DocumentsResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/documents [get]
func (e *SessionDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	svc := svcctx.DashboardFrom(r.Context())
	docs, err := svc.LoadDocuments(r.Context(), sess, refresh)
	resp := DocumentsResponse{Documents: docs, Total: len(docs)}
	if err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *SessionDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "documents <session>",
		Short: "Load the document catalog into a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/sessions/" + args[0] + "/documents"
			if refresh {
				path += "?refresh=true"
			}
			var resp DocumentsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the catalog from the gateway")
	return cmd
}
