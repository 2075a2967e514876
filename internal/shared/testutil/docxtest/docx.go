// Package docxtest builds small in-memory DOCX packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"
	"testing"
)

// Doc describes the content of a generated document.
type Doc struct {
	Paragraphs []string
	Tables     [][][]string
	Headers    []string
	Footers    []string
	// TextBoxes are written before the paragraphs as anchored shapes with a
	// VML fallback, the way Word saves them.
	TextBoxes []string
	// Bold and Italic wrap every paragraph run in the given run properties.
	Bold   bool
	Italic bool
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const shapeNS = `xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape" ` +
	`xmlns:v="urn:schemas-microsoft-com:vml"`

// Build renders doc as DOCX bytes.
func Build(doc Doc) ([]byte, error) {
	parts := map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"_rels/.rels":                  relsXML,
		"word/document.xml":            documentXML(doc),
		"word/_rels/document.xml.rels": documentRelsXML,
	}
	for i, h := range doc.Headers {
		parts[fmt.Sprintf("word/header%d.xml", i+1)] = partXML("hdr", h)
	}
	for i, f := range doc.Footers {
		parts[fmt.Sprintf("word/footer%d.xml", i+1)] = partXML("ftr", f)
	}
	return Zip(parts)
}

// MustBuild is Build for tests.
func MustBuild(tb testing.TB, doc Doc) []byte {
	tb.Helper()
	data, err := Build(doc)
	if err != nil {
		tb.Fatalf("build docx: %v", err)
	}
	return data
}

// Zip writes the given name to content pairs into a zip archive.
func Zip(parts map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedNames(parts) {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func documentXML(doc Doc) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document ` + wordNS + ` ` + shapeNS + ` mc:Ignorable="wps"><w:body>`)
	for _, box := range doc.TextBoxes {
		b.WriteString(textBox(box))
	}
	for _, p := range doc.Paragraphs {
		b.WriteString(paragraph(p, doc.Bold, doc.Italic))
	}
	for _, table := range doc.Tables {
		b.WriteString("<w:tbl>")
		for _, row := range table {
			b.WriteString("<w:tr>")
			for _, cell := range row {
				b.WriteString("<w:tc>" + paragraph(cell, false, false) + "</w:tc>")
			}
			b.WriteString("</w:tr>")
		}
		b.WriteString("</w:tbl>")
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func partXML(root, text string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:` + root + ` ` + wordNS + `>` + paragraph(text, false, false) + `</w:` + root + `>`
}

func paragraph(text string, bold, italic bool) string {
	var props string
	if bold || italic {
		props = "<w:rPr>"
		if bold {
			props += "<w:b/>"
		}
		if italic {
			props += "<w:i/>"
		}
		props += "</w:rPr>"
	}
	return `<w:p><w:r>` + props + `<w:t xml:space="preserve">` + html.EscapeString(text) + `</w:t></w:r></w:p>`
}

func textBox(text string) string {
	inner := `<w:txbxContent>` + paragraph(text, false, false) + `</w:txbxContent>`
	return `<w:p><w:r><mc:AlternateContent>` +
		`<mc:Choice Requires="wps"><w:drawing><wp:anchor><a:graphic><a:graphicData>` +
		`<wps:wsp><wps:txbx>` + inner + `</wps:txbx></wps:wsp>` +
		`</a:graphicData></a:graphic></wp:anchor></w:drawing></mc:Choice>` +
		`<mc:Fallback><w:pict><v:rect><v:textbox>` + inner + `</v:textbox></v:rect></w:pict></mc:Fallback>` +
		`</mc:AlternateContent></w:r></w:p>`
}

func sortedNames(parts map[string]string) []string {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	// [Content_Types].xml first, the rest in lexical order.
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "[Content_Types].xml" || names[j] == "[Content_Types].xml" {
			return names[i] == "[Content_Types].xml"
		}
		return names[i] < names[j]
	})
	return names
}
