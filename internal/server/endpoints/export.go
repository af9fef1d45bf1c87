package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/export"
)

// ExportPDFEndpoint handles GET /api/sessions/{id}/export/pdf.
type ExportPDFEndpoint struct{}

func (e *ExportPDFEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/export/pdf", e.handler
}

func (e *ExportPDFEndpoint) RequiresInit() bool { return false }
func (e *ExportPDFEndpoint) Group() string      { return sessionsGroup }

// handler godoc
//
//	@Summary		Export the analysis as PDF
//	@Description	Title page with the analyzed documents, then one page per section
//	@Tags			sessions,export
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/sessions/{id}/export/pdf [get]
func (e *ExportPDFEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := export.PDF(&buf, sess.Result(), sess.Selection(), export.Options{GeneratedAt: now}); err != nil {
		writeFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(now)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (e *ExportPDFEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Download the analysis report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetBytes(cmd.Context(), "/api/sessions/"+args[0]+"/export/pdf")
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = export.Filename(time.Now())
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			return api.Output(map[string]any{"file": outPath, "bytes": len(data)})
		},
	}
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "Output file (default: analisis_documentario_<timestamp>.pdf)")
	return cmd
}
