package readiness

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ExtractedContent is the text and structure pulled from one document.
// Headers and footers are structural metadata supplied by the extractor.
type ExtractedContent struct {
	Paragraphs      []string     `json:"paragraphs"`
	Tables          [][][]string `json:"tables"`
	Headers         []string     `json:"headers,omitempty"`
	Footers         []string     `json:"footers,omitempty"`
	TotalCharacters int          `json:"total_characters"`
	TotalWords      int          `json:"total_words"`
}

// UnitKind identifies where a text unit came from.
type UnitKind string

const (
	UnitParagraph UnitKind = "paragraph"
	UnitTableCell UnitKind = "table_cell"
	UnitHeader    UnitKind = "header"
	UnitFooter    UnitKind = "footer"
)

// Unit is one indivisible block of text used for segmentation.
type Unit struct {
	Kind  UnitKind
	Label string
	Text  string
}

// Units flattens the content into text units in document order:
// paragraphs, table cells, headers, footers. Blank entries are skipped.
func (c ExtractedContent) Units() []Unit {
	var units []Unit
	for i, p := range c.Paragraphs {
		if text := strings.TrimSpace(p); text != "" {
			units = append(units, Unit{Kind: UnitParagraph, Label: fmt.Sprintf("Paragraph %d", i+1), Text: text})
		}
	}
	for t, table := range c.Tables {
		for r, row := range table {
			for col, cell := range row {
				if text := strings.TrimSpace(cell); text != "" {
					units = append(units, Unit{
						Kind:  UnitTableCell,
						Label: fmt.Sprintf("Table %d row %d cell %d", t+1, r+1, col+1),
						Text:  text,
					})
				}
			}
		}
	}
	for i, h := range c.Headers {
		if text := strings.TrimSpace(h); text != "" {
			units = append(units, Unit{Kind: UnitHeader, Label: fmt.Sprintf("Header %d", i+1), Text: text})
		}
	}
	for i, f := range c.Footers {
		if text := strings.TrimSpace(f); text != "" {
			units = append(units, Unit{Kind: UnitFooter, Label: fmt.Sprintf("Footer %d", i+1), Text: text})
		}
	}
	return units
}

// Text joins every unit with single spaces.
func (c ExtractedContent) Text() string {
	units := c.Units()
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Text
	}
	return strings.Join(parts, " ")
}

// WithTotals returns a copy whose totals are computed from the text.
func (c ExtractedContent) WithTotals() ExtractedContent {
	text := c.Text()
	c.TotalCharacters = utf8.RuneCountInString(text)
	c.TotalWords = len(strings.Fields(text))
	return c
}

// ContentTypes reports which structural parts carry text.
func (c ExtractedContent) ContentTypes() []string {
	types := make([]string, 0, 4)
	if anyText(c.Paragraphs) {
		types = append(types, "paragraphs")
	}
	for _, table := range c.Tables {
		if tableHasText(table) {
			types = append(types, "tables")
			break
		}
	}
	if anyText(c.Headers) {
		types = append(types, "headers")
	}
	if anyText(c.Footers) {
		types = append(types, "footers")
	}
	return types
}

func anyText(items []string) bool {
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func tableHasText(table [][]string) bool {
	for _, row := range table {
		if anyText(row) {
			return true
		}
	}
	return false
}
