// Package export renders a normalized analysis as a PDF report.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/regdesk/internal/normalize"
	"github.com/jackzampolin/regdesk/internal/types"
)

// ErrNoResult is returned when there is no analysis to export.
var ErrNoResult = errors.New("no analysis result to export")

const (
	// MaxParagraph caps each paragraph before rendering.
	MaxParagraph = 2000

	bodySize    = 11
	bodyLeading = 16.0
	bodyWidth   = 80

	listSize    = 10
	listLeading = 14.0
	listIndent  = 20.0
	listWidth   = 80

	headingSize    = 14
	headingLeading = 24.0
)

// Options controls report generation.
type Options struct {
	// GeneratedAt is printed on the title page. Defaults to now.
	GeneratedAt time.Time
}

// Filename returns the report file name for the given time.
func Filename(now time.Time) string {
	return "analisis_documentario_" + now.Format("20060102_150405") + ".pdf"
}

// PDF writes the report for result and docs to w: a title page with the
// document list, then one page (or more on overflow) per non-empty section,
// then references when present.
func PDF(w io.Writer, result *normalize.Result, docs []types.Document, opts Options) error {
	if result == nil {
		return ErrNoResult
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	l := build(result, docs, opts)

	spec, err := json.Marshal(l.document())
	if err != nil {
		return fmt.Errorf("failed to encode page layout: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(spec), w, conf); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// WriteFile renders the report into dir and returns the written path.
func WriteFile(dir string, result *normalize.Result, docs []types.Document, opts Options) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	var buf bytes.Buffer
	if err := PDF(&buf, result, docs, opts); err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(opts.GeneratedAt))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}
	return path, nil
}

func build(result *normalize.Result, docs []types.Document, opts Options) *layout {
	l := &layout{}
	l.newPage()

	l.line("CENTRO DE ANÁLISIS DOCUMENTARIO", fontBold, 20, 28, 0)
	l.line("Reporte de Análisis", fontBold, 16, 24, 0)
	l.space(20)
	l.line("Fecha de generación: "+opts.GeneratedAt.Format("02/01/2006 15:04"), fontRegular, bodySize, bodyLeading, 0)
	l.line("Total de documentos analizados: "+strconv.Itoa(len(docs)), fontRegular, bodySize, bodyLeading, 0)
	l.space(20)
	l.line("Documentos Analizados", fontBold, headingSize, headingLeading, 0)
	for i, doc := range docs {
		name := doc.Name
		if name == "" {
			name = "Sin nombre"
		}
		l.paragraph(strconv.Itoa(i+1)+". "+name, fontRegular, listSize, listLeading, listIndent, listWidth)
	}

	for _, s := range normalize.Sections {
		text := result.Section(s)
		paras := paragraphs(text)
		if len(paras) == 0 {
			continue
		}
		l.newPage()
		l.line(s.Title(), fontBold, headingSize, headingLeading, 0)
		for _, p := range paras {
			l.paragraph(truncate(p, MaxParagraph), fontRegular, bodySize, bodyLeading, 0, bodyWidth)
			l.space(bodyLeading / 2)
		}
	}

	if len(result.References) > 0 {
		l.newPage()
		l.line("Referencias", fontBold, headingSize, headingLeading, 0)
		for i, ref := range result.References {
			l.paragraph(fmt.Sprintf("%d. %s %s (%s)", i+1, ref.DocumentType, ref.InternalNumber, ref.IssuingArea),
				fontBold, bodySize, bodyLeading, 0, bodyWidth)
			l.paragraph(fmt.Sprintf("Fecha de emisión: %s. Expediente: %s. Documento: %s",
				ref.IssuanceDate, ref.CaseFileNumber, ref.DocumentID),
				fontRegular, listSize, listLeading, listIndent, listWidth)
			l.space(listLeading / 2)
		}
	}

	return l
}

// document converts the layout to pdfcpu's JSON page description.
func (l *layout) document() map[string]any {
	pages := make(map[string]any, len(l.pages))
	for i, p := range l.pages {
		items := p.items
		if items == nil {
			items = []textItem{}
		}
		pages[strconv.Itoa(i+1)] = map[string]any{
			"content": map[string]any{"text": items},
		}
	}
	return map[string]any{
		"paper":  "A4P",
		"origin": "LowerLeft",
		"pages":  pages,
	}
}
