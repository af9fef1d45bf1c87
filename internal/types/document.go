package types

// Document is a regulatory document offered by the catalog.
// ID is derived from the leading digits of Name (or a positional fallback);
// Number is the raw digit run submitted for analysis and may be empty.
type Document struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Number string `json:"number" yaml:"number"`
}

// ShortName returns the display name truncated to n runes, with "..." appended
// when truncation happened.
func (d Document) ShortName(n int) string {
	r := []rune(d.Name)
	if n <= 0 || len(r) <= n {
		return d.Name
	}
	return string(r[:n]) + "..."
}
