package export

import (
	"strings"
	"unicode/utf8"
)

// A4 portrait in points.
const (
	pageHeight = 842.0

	marginLeft   = 72.0
	marginTop    = 72.0
	marginBottom = 54.0

	fontRegular = "Helvetica"
	fontBold    = "Helvetica-Bold"
)

type textItem struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  fontSpec   `json:"font"`
}

type fontSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type page struct {
	items []textItem
}

// layout flows lines top to bottom, starting a new page when the current one
// is full. y is measured from the top edge.
type layout struct {
	pages []*page
	y     float64
}

func (l *layout) newPage() {
	l.pages = append(l.pages, &page{})
	l.y = marginTop
}

func (l *layout) current() *page {
	if len(l.pages) == 0 {
		l.newPage()
	}
	return l.pages[len(l.pages)-1]
}

// line places one line of text at the given indent, breaking the page first
// if the line would cross the bottom margin.
func (l *layout) line(text, font string, size int, leading, indent float64) {
	p := l.current()
	if l.y+leading > pageHeight-marginBottom {
		l.newPage()
		p = l.current()
	}
	l.y += leading
	p.items = append(p.items, textItem{
		Value: text,
		Pos:   [2]float64{marginLeft + indent, pageHeight - l.y},
		Font:  fontSpec{Name: font, Size: size},
	})
}

// space advances the cursor without emitting text.
func (l *layout) space(h float64) {
	l.y += h
}

// paragraph wraps text to width runes and emits each line.
func (l *layout) paragraph(text, font string, size int, leading, indent float64, width int) {
	for _, ln := range wrap(text, width) {
		l.line(ln, font, size, leading, indent)
	}
}

// wrap folds whitespace and greedily breaks text into lines of at most width
// runes. Words longer than width are split.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, w := range words {
		for utf8.RuneCountInString(w) > width {
			flush()
			r := []rune(w)
			lines = append(lines, string(r[:width]))
			w = string(r[width:])
		}
		n := utf8.RuneCountInString(w)
		if curLen > 0 && curLen+1+n > width {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += n
	}
	flush()
	return lines
}

// truncate caps s at max runes, appending "..." when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// paragraphs splits section text on blank lines, dropping empty paragraphs.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
