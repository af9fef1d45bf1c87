package normalize

import (
	"encoding/json"
	"strconv"
)

// Reference is one source document cited by the analysis.
type Reference struct {
	DocumentType   string `json:"document_type" yaml:"document_type"`
	InternalNumber string `json:"internal_number" yaml:"internal_number"`
	IssuingArea    string `json:"issuing_area" yaml:"issuing_area"`
	IssuanceDate   string `json:"issuance_date" yaml:"issuance_date"`
	CaseFileNumber string `json:"case_file_number" yaml:"case_file_number"`
	DocumentID     string `json:"document_id" yaml:"document_id"`
}

var referenceKeys = []string{"references", "referencias"}

// Field lookups, canonical key first.
var (
	documentTypeKeys   = []string{"document_type", "tipo_documento", "TIPO_DOCUMENTO"}
	internalNumberKeys = []string{"internal_number", "num_interno_doc", "numero_interno", "NUM_INTERNO_DOC"}
	issuingAreaKeys    = []string{"issuing_area", "area_emisora", "AREA_EMISORA"}
	issuanceDateKeys   = []string{"issuance_date", "fecha_emision", "FECHA_EMISION"}
	caseFileNumberKeys = []string{"case_file_number", "numero_expediente", "NUMERO_EXPEDIENTE"}
	documentIDKeys     = []string{"document_id", "documento_id", "DOCUMENTO_ID", "id"}
)

// extractReferences reads the reference list from the first mapping that has
// one. Non-mapping entries are skipped.
func extractReferences(maps ...map[string]any) []Reference {
	refs := []Reference{}
	for _, m := range maps {
		for _, key := range referenceKeys {
			list, ok := m[key].([]any)
			if !ok {
				continue
			}
			for _, item := range list {
				rec, ok := item.(map[string]any)
				if !ok {
					continue
				}
				refs = append(refs, referenceFrom(rec))
			}
			return refs
		}
	}
	return refs
}

func referenceFrom(rec map[string]any) Reference {
	return Reference{
		DocumentType:   field(rec, documentTypeKeys),
		InternalNumber: field(rec, internalNumberKeys),
		IssuingArea:    field(rec, issuingAreaKeys),
		IssuanceDate:   field(rec, issuanceDateKeys),
		CaseFileNumber: field(rec, caseFileNumberKeys),
		DocumentID:     field(rec, documentIDKeys),
	}
}

// field returns the first non-empty scalar found under keys, as text.
func field(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := scalarText(rec[k]); ok && s != "" {
			return s
		}
	}
	return NotAvailable
}

func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}
