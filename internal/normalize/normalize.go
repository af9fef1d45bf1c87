package normalize

import (
	"strings"
)

// Result is a normalized analysis: every canonical section is present.
type Result struct {
	Sections   map[Section]string `json:"sections" yaml:"sections"`
	References []Reference        `json:"references" yaml:"references"`
}

// Section returns the text for s, or "" for a non-canonical name.
func (r *Result) Section(s Section) string {
	if r == nil {
		return ""
	}
	return r.Sections[s]
}

// Normalizer converts raw analysis results. The zero value is not usable;
// construct with New.
type Normalizer struct {
	placeholder string
	aliases     map[Section][]string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPlaceholder overrides the placeholder text. Empty values are ignored.
func WithPlaceholder(text string) Option {
	return func(n *Normalizer) {
		if text != "" {
			n.placeholder = text
		}
	}
}

// WithAliases adds wire keys per section, looked up after the defaults.
// Unknown section names are ignored.
func WithAliases(aliases map[string][]string) Option {
	return func(n *Normalizer) {
		for name, keys := range aliases {
			s := Section(name)
			if !s.Valid() {
				continue
			}
			n.aliases[s] = append(n.aliases[s], keys...)
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		placeholder: DefaultPlaceholder,
		aliases:     DefaultAliases(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Placeholder returns the text used for empty sections.
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

var defaultNormalizer = New()

// Normalize converts raw using the default placeholder and aliases.
func Normalize(raw any) *Result {
	return defaultNormalizer.Normalize(raw)
}

// Normalize converts raw into a Result. The per-section values are read from
// raw["sections"] when it is a mapping, otherwise from raw itself. Any other
// shape yields placeholders for every section.
func (n *Normalizer) Normalize(raw any) *Result {
	res := &Result{
		Sections:   make(map[Section]string, len(Sections)),
		References: []Reference{},
	}

	top, _ := raw.(map[string]any)
	container := top
	if sections, ok := top["sections"].(map[string]any); ok {
		container = sections
	}

	for _, s := range Sections {
		res.Sections[s] = n.section(container, s)
	}

	if top != nil {
		res.References = extractReferences(top, container)
	}
	return res
}

// section renders one section from container, falling back to the placeholder.
func (n *Normalizer) section(container map[string]any, s Section) string {
	for _, key := range n.keys(s) {
		v, ok := container[key]
		if !ok {
			continue
		}
		switch val := decodeValue(v).(type) {
		case textValue:
			return string(val)
		case entryList:
			if text := val.text(); text != "" {
				return text
			}
		}
	}
	return n.placeholder
}

func (n *Normalizer) keys(s Section) []string {
	keys := []string{string(s)}
	for _, k := range n.aliases[s] {
		if k != string(s) {
			keys = append(keys, k)
		}
	}
	return keys
}

// value is the decoded shape of a raw section: either text, used as is, or
// a list of entries. decodeValue returns nil for any other shape.
type value interface {
	text() string
}

type textValue string

func (t textValue) text() string { return string(t) }

type entryList []string

func (l entryList) text() string { return strings.Join(l, "\n\n") }

func decodeValue(v any) value {
	switch x := v.(type) {
	case string:
		return textValue(x)
	case []string:
		return entryList(nonEmpty(x))
	case []any:
		entries := make([]string, 0, len(x))
		for _, item := range x {
			if t, ok := entryText(item); ok {
				entries = append(entries, t)
			}
		}
		return entryList(entries)
	case []map[string]any:
		entries := make([]string, 0, len(x))
		for _, item := range x {
			if t, ok := entryText(item); ok {
				entries = append(entries, t)
			}
		}
		return entryList(entries)
	default:
		return nil
	}
}

// entryText extracts the text of one list entry: a string is used directly,
// a mapping contributes its string "text" field.
func entryText(item any) (string, bool) {
	switch e := item.(type) {
	case string:
		if e == "" {
			return "", false
		}
		return e, true
	case map[string]any:
		t, ok := e["text"].(string)
		if !ok || t == "" {
			return "", false
		}
		return t, true
	}
	return "", false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
