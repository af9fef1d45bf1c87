package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/normalize"
	"github.com/jackzampolin/regdesk/internal/session"
	"github.com/jackzampolin/regdesk/internal/svcctx"
)

// AnalysisResponse carries the status and normalized result of a session.
type AnalysisResponse struct {
	State  session.AnalysisState `json:"state"`
	Result *normalize.Result     `json:"result"`
}

// RunAnalysisEndpoint handles POST /api/sessions/{id}/analysis.
type RunAnalysisEndpoint struct{}

func (e *RunAnalysisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/analysis", e.handler
}

func (e *RunAnalysisEndpoint) RequiresInit() bool { return true }
func (e *RunAnalysisEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary		Analyze the selected documents
//	@Description	Submits the selection to the analysis service and stores the normalized result. Blocks until the service answers or times out.
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	AnalysisResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		504	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/analysis [post]
func (e *RunAnalysisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	svc := svcctx.DashboardFrom(r.Context())
	result, err := svc.Analyze(r.Context(), sess)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{State: sess.State(), Result: result})
}

func (e *RunAnalysisEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <session>",
		Short: "Run the analysis for a session's selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnalysisResponse
			if err := client.Post(cmd.Context(), "/api/sessions/"+args[0]+"/analysis", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetAnalysisEndpoint handles GET /api/sessions/{id}/analysis.
type GetAnalysisEndpoint struct{}

func (e *GetAnalysisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/analysis", e.handler
}

func (e *GetAnalysisEndpoint) RequiresInit() bool { return false }
func (e *GetAnalysisEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary	Get the current analysis
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	AnalysisResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/sessions/{id}/analysis [get]
func (e *GetAnalysisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{State: sess.State(), Result: sess.Result()})
}

func (e *GetAnalysisEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "result <session>",
		Short: "Show the current analysis status and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnalysisResponse
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0]+"/analysis", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
