package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/session"
	"github.com/jackzampolin/regdesk/internal/svcctx"
	"github.com/jackzampolin/regdesk/internal/types"
)

// AddSelectionRequest selects a catalog document.
type AddSelectionRequest struct {
	DocumentID string `json:"document_id"`
}

// SelectionResponse reports the selection after a change.
type SelectionResponse struct {
	Result      string           `json:"result"`
	Document    *types.Document  `json:"document,omitempty"`
	Selection   []types.Document `json:"selection"`
	SelectorKey int              `json:"selector_key"`
}

// AddSelectionEndpoint handles POST /api/sessions/{id}/selection.
type AddSelectionEndpoint struct{}

func (e *AddSelectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/selection", e.handler
}

func (e *AddSelectionEndpoint) RequiresInit() bool { return true }
func (e *AddSelectionEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary		Add a document to the selection
//	@Description	Appends the document unless it is already selected. A successful add resets the analysis.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		AddSelectionRequest	true	"Document to add"
//	@Success		200		{object}	SelectionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	SelectionResponse
//	@Router			/api/sessions/{id}/selection [post]
func (e *AddSelectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req AddSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	svc := svcctx.DashboardFrom(r.Context())
	res, doc, err := svc.AddDocument(r.Context(), sess, req.DocumentID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	status := http.StatusOK
	if res == session.DuplicateRejected {
		status = http.StatusConflict
	}
	writeJSON(w, status, SelectionResponse{
		Result:      res.String(),
		Document:    &doc,
		Selection:   sess.Selection(),
		SelectorKey: sess.SelectorKey(),
	})
}

func (e *AddSelectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <session> <document-id>",
		Short: "Add a document to a session's selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SelectionResponse
			req := AddSelectionRequest{DocumentID: args[1]}
			if err := client.Post(cmd.Context(), "/api/sessions/"+args[0]+"/selection", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ClearSelectionEndpoint handles DELETE /api/sessions/{id}/selection.
type ClearSelectionEndpoint struct{}

func (e *ClearSelectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sessions/{id}/selection", e.handler
}

func (e *ClearSelectionEndpoint) RequiresInit() bool { return false }
func (e *ClearSelectionEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary	Clear the selection
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	SelectionResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id}/selection [delete]
func (e *ClearSelectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, SelectionResponse{
		Result:      "cleared",
		Selection:   []types.Document{},
		SelectorKey: sess.SelectorKey(),
	})
}

func (e *ClearSelectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session>",
		Short: "Clear a session's selection and analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SelectionResponse
			if err := client.Delete(cmd.Context(), "/api/sessions/"+args[0]+"/selection", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdateStatusEndpoint handles PATCH /api/sessions/{id}/status.
type UpdateStatusEndpoint struct{}

func (e *UpdateStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/sessions/{id}/status", e.handler
}

func (e *UpdateStatusEndpoint) RequiresInit() bool { return false }
func (e *UpdateStatusEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary		Merge analysis status fields
//	@Description	Only status, progress, message and analysis_id are applied; other fields are ignored. The status is advisory: setting "processing" here does not block POST /analysis.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			request	body		object	true	"Partial status"
//	@Success		200		{object}	session.AnalysisState
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/status [patch]
func (e *UpdateStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var update session.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.UpdateStatus(update))
}

func (e *UpdateStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status, message string
	var progress int
	cmd := &cobra.Command{
		Use:   "status <session>",
		Short: "Update a session's analysis status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if cmd.Flags().Changed("status") {
				body["status"] = status
			}
			if cmd.Flags().Changed("progress") {
				body["progress"] = progress
			}
			if cmd.Flags().Changed("message") {
				body["message"] = message
			}
			client := api.NewClient(getServerURL())
			var resp session.AnalysisState
			if err := client.Patch(cmd.Context(), "/api/sessions/"+args[0]+"/status", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Status (idle, processing, complete, error)")
	cmd.Flags().IntVar(&progress, "progress", 0, "Progress 0-100")
	cmd.Flags().StringVar(&message, "message", "", "Status message")
	return cmd
}
