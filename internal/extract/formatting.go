package extract

import (
	"encoding/xml"
	"strings"
)

// Formatting lists formatting features a translation service must carry over.
type Formatting struct {
	HasFormatting         bool     `json:"has_formatting"`
	Elements              []string `json:"formatting_elements"`
	Complex               bool     `json:"complex_formatting"`
	PreservationSupported bool     `json:"preservation_supported"`
}

// More than this many distinct elements counts as complex formatting.
const complexFormattingThreshold = 3

type formatMarks struct {
	bold, italic, underline, fontSize, fontColor bool
	tables, headers, footers                     bool
}

func (m *formatMarks) record(el xml.StartElement) {
	val := attr(el, "val")
	switch el.Name.Local {
	case "b":
		m.bold = m.bold || isOn(val)
	case "i":
		m.italic = m.italic || isOn(val)
	case "u":
		m.underline = m.underline || (val != "none" && isOn(val))
	case "sz":
		m.fontSize = m.fontSize || val != ""
	case "color":
		m.fontColor = m.fontColor || (val != "" && !strings.EqualFold(val, "auto"))
	}
}

func (m formatMarks) summary() Formatting {
	elements := []string{}
	for _, e := range []struct {
		on   bool
		name string
	}{
		{m.bold, "bold"},
		{m.italic, "italic"},
		{m.underline, "underline"},
		{m.fontSize, "font_size"},
		{m.fontColor, "font_color"},
		{m.tables, "tables"},
		{m.headers, "headers"},
		{m.footers, "footers"},
	} {
		if e.on {
			elements = append(elements, e.name)
		}
	}
	return Formatting{
		HasFormatting:         len(elements) > 0,
		Elements:              elements,
		Complex:               len(elements) > complexFormattingThreshold,
		PreservationSupported: true,
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// isOn interprets an OOXML toggle value. A missing value means on.
func isOn(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "0", "false", "off":
		return false
	default:
		return true
	}
}
