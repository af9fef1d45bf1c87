// Package normalize turns the analysis service's loosely shaped JSON into a
// fixed set of named text sections plus structured references.
//
// Normalization never fails: anything missing or malformed degrades to a
// placeholder.
package normalize

// Section is a canonical analysis section name.
type Section string

const (
	Introduction     Section = "introduction"
	Context          Section = "context"
	Summaries        Section = "summaries"
	DetailedAnalysis Section = "detailed_analysis"
	Comparison       Section = "comparison"
	Conclusion       Section = "conclusion"
)

// Sections lists the canonical sections in display order.
var Sections = []Section{
	Introduction,
	Context,
	Summaries,
	DetailedAnalysis,
	Comparison,
	Conclusion,
}

var titles = map[Section]string{
	Introduction:     "Introducción",
	Context:          "Contexto",
	Summaries:        "Resúmenes Ejecutivos",
	DetailedAnalysis: "Análisis Detallado",
	Comparison:       "Comparación de Documentos",
	Conclusion:       "Conclusión",
}

// Title returns the display title for the section.
func (s Section) Title() string {
	if t, ok := titles[s]; ok {
		return t
	}
	return string(s)
}

// Valid reports whether s is one of the canonical sections.
func (s Section) Valid() bool {
	_, ok := titles[s]
	return ok
}

// DefaultPlaceholder replaces sections that are absent or malformed.
const DefaultPlaceholder = "No hay datos disponibles para esta sección."

// NotAvailable fills reference fields that are missing.
const NotAvailable = "N/A"

// DefaultAliases are the additional wire keys looked up for each section
// after its canonical name.
func DefaultAliases() map[Section][]string {
	return map[Section][]string{
		Introduction:     {"introduccion"},
		Context:          {"contexto"},
		Summaries:        {"resumenes_ejecutivos"},
		DetailedAnalysis: {"analisis_detallado", "main_content"},
		Comparison:       {"comparacion_documentos"},
	}
}
