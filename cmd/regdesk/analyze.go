package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/api"
	"github.com/jackzampolin/regdesk/internal/dashboard"
	"github.com/jackzampolin/regdesk/internal/export"
	"github.com/jackzampolin/regdesk/internal/session"
)

var (
	analyzeNoPDF  bool
	analyzeOutDir string
)

// newService loads config and wires a dashboard service without a server.
func newService() (*dashboard.Service, string, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, "", err
	}
	h, err := getHome()
	if err != nil {
		return nil, "", err
	}
	cm, err := loadConfig(h)
	if err != nil {
		return nil, "", err
	}
	svc, err := dashboard.NewFromConfig(cm.Get(), logger)
	if err != nil {
		return nil, "", err
	}
	return svc, h.ExportsDir(), nil
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the document catalog directly from the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		docs, err := svc.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(docs)
	},
}

// AnalyzeOutput is printed by the analyze command.
type AnalyzeOutput struct {
	State  session.AnalysisState `json:"state" yaml:"state"`
	Result any                   `json:"result,omitempty" yaml:"result,omitempty"`
	PDF    string                `json:"pdf,omitempty" yaml:"pdf,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document-id>...",
	Short: "Analyze documents without a running server",
	Long: `Select documents by id, run the analysis and export a PDF report.

Document ids are the numeric prefixes shown by "regdesk documents".
Duplicate ids are ignored. The PDF is written to ~/.regdesk/exports unless
--out is given.

Examples:
  regdesk analyze 123 456
  regdesk analyze 123 --no-pdf -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, exportsDir, err := newService()
		if err != nil {
			return err
		}

		sess := session.New("cli")
		for _, id := range args {
			res, doc, err := svc.AddDocument(ctx, sess, id)
			if err != nil {
				return err
			}
			if res == session.DuplicateRejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping duplicate document %s\n", doc.ShortName(40))
			}
		}

		result, err := svc.Analyze(ctx, sess)
		if err != nil {
			return err
		}

		out := AnalyzeOutput{State: sess.State(), Result: result}
		if !analyzeNoPDF {
			dir := analyzeOutDir
			if dir == "" {
				dir = exportsDir
			}
			path, err := export.WriteFile(dir, result, sess.Selection(), export.Options{})
			if err != nil {
				return err
			}
			out.PDF = path
		}
		return api.Output(out)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeNoPDF, "no-pdf", false, "Skip the PDF export")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out", "", "Directory for the PDF report")

	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(analyzeCmd)
}
