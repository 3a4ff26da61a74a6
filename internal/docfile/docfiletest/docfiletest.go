// Package docfiletest builds minimal DOCX fixtures for tests.
package docfiletest

import (
	"archive/zip"
	"os"
	"strings"
	"testing"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// Paragraph is one paragraph of the fixture body. Runs lets a test split the
// paragraph text across multiple runs the way word processors do.
type Paragraph struct {
	Runs    []string
	InTable bool
}

// P builds a single-run body paragraph.
func P(text string) Paragraph { return Paragraph{Runs: []string{text}} }

// Split builds a body paragraph whose text is spread across several runs.
func Split(runs ...string) Paragraph { return Paragraph{Runs: runs} }

// Cell builds a single-run paragraph inside a table cell.
func Cell(text string) Paragraph { return Paragraph{Runs: []string{text}, InTable: true} }

// Write creates a .docx file at path containing the given paragraphs.
// Consecutive table paragraphs share one table.
func Write(t testing.TB, path string, paragraphs ...Paragraph) {
	t.Helper()

	var body strings.Builder
	i := 0
	for i < len(paragraphs) {
		if !paragraphs[i].InTable {
			writePara(&body, paragraphs[i])
			i++
			continue
		}
		body.WriteString(`<w:tbl><w:tr><w:tc>`)
		for i < len(paragraphs) && paragraphs[i].InTable {
			writePara(&body, paragraphs[i])
			i++
		}
		body.WriteString(`</w:tc></w:tr></w:tbl>`)
	}

	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for name, data := range map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"_rels/.rels":                  relsXML,
		"word/_rels/document.xml.rels": documentRelsXML,
		"word/document.xml":            documentXML,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create archive entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("write archive entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("finalize fixture: %v", err)
	}
}

func writePara(sb *strings.Builder, p Paragraph) {
	sb.WriteString("<w:p>")
	for _, run := range p.Runs {
		sb.WriteString(`<w:r><w:t xml:space="preserve">`)
		sb.WriteString(escape(run))
		sb.WriteString(`</w:t></w:r>`)
	}
	sb.WriteString("</w:p>")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string { return escaper.Replace(s) }
