package extract

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type parsedPart struct {
	paragraphs []string
	tables     [][][]string
	marks      formatMarks
}

// parser walks WordprocessingML and tracks paragraph and table nesting.
// Paragraphs inside text boxes close before their host paragraph and are
// emitted as separate paragraphs. Nested tables flatten into their cell.
// mc:Fallback branches repeat their mc:Choice content and are skipped.
type parser struct {
	out parsedPart

	paras      []*strings.Builder
	inText     bool
	inRunProps int
	inParProps int

	tableDepth int
	table      [][]string
	row        []string
	cell       *strings.Builder
}

func parsePart(r io.Reader) (parsedPart, error) {
	p := &parser{}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parsedPart{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return parsedPart{}, err
				}
				continue
			}
			p.start(t)
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			if p.inText && len(p.paras) > 0 {
				p.paras[len(p.paras)-1].Write(t)
			}
		}
	}
	return p.out, nil
}

func (p *parser) start(el xml.StartElement) {
	switch el.Name.Local {
	case "p":
		p.paras = append(p.paras, &strings.Builder{})
	case "t":
		p.inText = true
	case "tab":
		if p.inRunProps == 0 && p.inParProps == 0 {
			p.write("\t")
		}
	case "pPr":
		p.inParProps++
	case "br", "cr":
		p.write("\n")
	case "rPr":
		p.inRunProps++
	case "b", "i", "u", "sz", "color":
		if p.inRunProps > 0 {
			p.out.marks.record(el)
		}
	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.table = nil
		}
	case "tr":
		if p.tableDepth == 1 {
			p.row = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.cell = &strings.Builder{}
		}
	}
}

func (p *parser) end(el xml.EndElement) {
	switch el.Name.Local {
	case "t":
		p.inText = false
	case "rPr":
		if p.inRunProps > 0 {
			p.inRunProps--
		}
	case "pPr":
		if p.inParProps > 0 {
			p.inParProps--
		}
	case "p":
		if len(p.paras) == 0 {
			return
		}
		text := strings.TrimSpace(p.paras[len(p.paras)-1].String())
		p.paras = p.paras[:len(p.paras)-1]
		if text == "" {
			return
		}
		if p.tableDepth > 0 && p.cell != nil {
			if p.cell.Len() > 0 {
				p.cell.WriteByte('\n')
			}
			p.cell.WriteString(text)
			return
		}
		p.out.paragraphs = append(p.out.paragraphs, text)
	case "tc":
		if p.tableDepth == 1 && p.cell != nil {
			if text := strings.TrimSpace(p.cell.String()); text != "" {
				p.row = append(p.row, text)
			}
			p.cell = nil
		}
	case "tr":
		if p.tableDepth == 1 && len(p.row) > 0 {
			p.table = append(p.table, p.row)
			p.row = nil
		}
	case "tbl":
		if p.tableDepth == 1 && len(p.table) > 0 {
			p.out.tables = append(p.out.tables, p.table)
			p.table = nil
		}
		if p.tableDepth > 0 {
			p.tableDepth--
		}
	}
}

func (p *parser) write(s string) {
	if len(p.paras) > 0 {
		p.paras[len(p.paras)-1].WriteString(s)
	}
}
