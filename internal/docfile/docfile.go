package docfile

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const documentEntry = "word/document.xml"

var (
	tableRe     = regexp.MustCompile(`(?s)<w:tbl(?: [^>]*)?>.*?</w:tbl>`)
	paragraphRe = regexp.MustCompile(`(?s)<w:p(?: [^>]*)?>.*?</w:p>`)
	runTextRe   = regexp.MustCompile(`(?s)<w:t(?: [^>]*)?>(.*?)</w:t>`)
	pPrRe       = regexp.MustCompile(`(?s)^<w:p(?: [^>]*)?>(<w:pPr>.*?</w:pPr>)`)
	rPrRe       = regexp.MustCompile(`(?s)<w:r(?: [^>]*)?>(?:<w:rPr>.*?</w:rPr>)`)

	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	charRefRe = regexp.MustCompile(`&#(?:x[0-9a-fA-F]+|[0-9]+);`)
)

type entry struct {
	header zip.FileHeader
	data   []byte
}

type paragraph struct {
	start   int
	end     int
	inTable bool
	text    string
}

// Doc is an in-memory DOCX archive exposing the paragraph/table/run text
// model: read all text, find a match, and replace text within a paragraph
// while keeping every other archive entry byte-identical.
type Doc struct {
	entries    []entry
	content    string
	paragraphs []paragraph
}

// Open reads a DOCX file into memory.
func Open(path string) (*Doc, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	defer reader.Close()

	d := &Doc{}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", file.Name, err)
		}
		d.entries = append(d.entries, entry{header: file.FileHeader, data: data})
		if file.Name == documentEntry {
			d.content = string(data)
		}
	}

	if d.content == "" {
		return nil, fmt.Errorf("docx has no %s entry", documentEntry)
	}

	d.reparse()
	return d, nil
}

func (d *Doc) reparse() {
	tables := tableRe.FindAllStringIndex(d.content, -1)
	matches := paragraphRe.FindAllStringIndex(d.content, -1)

	d.paragraphs = d.paragraphs[:0]
	for _, m := range matches {
		d.paragraphs = append(d.paragraphs, paragraph{
			start:   m[0],
			end:     m[1],
			inTable: withinAny(m[0], tables),
			text:    flattenRuns(d.content[m[0]:m[1]]),
		})
	}
}

func withinAny(pos int, ranges [][]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// flattenRuns joins the text of every run in a paragraph, the same view a
// reader of the rendered document would see even when a phrase is split
// across runs.
func flattenRuns(paragraphXML string) string {
	parts := runTextRe.FindAllStringSubmatch(paragraphXML, -1)
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(xmlUnescaper.Replace(decodeCharRefs(p[1])))
	}
	return sb.String()
}

// decodeCharRefs resolves numeric character references such as &#34; and
// &#xD;, which encoding/xml emits for quotes and control characters.
// Runs before the named-entity pass so an escaped ampersand stays literal.
func decodeCharRefs(s string) string {
	if !strings.Contains(s, "&#") {
		return s
	}
	return charRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		body := ref[2 : len(ref)-1]
		base := 10
		if body[0] == 'x' {
			base = 16
			body = body[1:]
		}
		n, err := strconv.ParseInt(body, base, 32)
		if err != nil || n <= 0 || !utf8.ValidRune(rune(n)) {
			return ref
		}
		return string(rune(n))
	})
}

// Text returns all paragraph text in document order, newline-joined.
// Table-cell paragraphs are included at their position in the stream.
func (d *Doc) Text() string {
	lines := make([]string, 0, len(d.paragraphs))
	for _, p := range d.paragraphs {
		lines = append(lines, p.text)
	}
	return strings.Join(lines, "\n")
}

// Paragraphs returns the flattened text of each paragraph in document order.
func (d *Doc) Paragraphs() []string {
	out := make([]string, 0, len(d.paragraphs))
	for _, p := range d.paragraphs {
		out = append(out, p.text)
	}
	return out
}

// ReplaceFirst substitutes the first occurrence of old in the first matching
// paragraph, searching body paragraphs before table cells. The matched
// paragraph is rewritten as a single run carrying the new text; paragraph
// properties and the first run's formatting survive, later runs' formatting
// does not. Returns false when no paragraph contains old.
func (d *Doc) ReplaceFirst(old, new string) bool {
	if old == "" {
		return false
	}
	for _, inTable := range []bool{false, true} {
		for i := range d.paragraphs {
			p := &d.paragraphs[i]
			if p.inTable != inTable || !strings.Contains(p.text, old) {
				continue
			}
			d.rewriteParagraph(p, strings.Replace(p.text, old, new, 1))
			return true
		}
	}
	return false
}

func (d *Doc) rewriteParagraph(p *paragraph, newText string) {
	oldXML := d.content[p.start:p.end]

	openEnd := strings.Index(oldXML, ">") + 1
	opening := oldXML[:openEnd]

	props := ""
	if m := pPrRe.FindStringSubmatch(oldXML); m != nil {
		props = m[1]
	}

	run := "<w:r>"
	if m := rPrRe.FindString(oldXML); m != "" {
		run = m
	}

	newXML := opening + props + run +
		`<w:t xml:space="preserve">` + xmlEscaper.Replace(newText) + `</w:t>` +
		"</w:r></w:p>"

	d.content = d.content[:p.start] + newXML + d.content[p.end:]
	d.reparse()
}

// SaveTo writes the archive to path. Entries other than the document body
// are copied verbatim.
func (d *Doc) SaveTo(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create docx file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, e := range d.entries {
		header := e.header
		w, err := zw.CreateHeader(&header)
		if err != nil {
			zw.Close()
			return fmt.Errorf("write archive header %s: %w", e.header.Name, err)
		}
		data := e.data
		if e.header.Name == documentEntry {
			data = []byte(d.content)
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("write archive entry %s: %w", e.header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize docx archive: %w", err)
	}
	return nil
}

// CopyFile duplicates a DOCX file on disk. The templater seeds working
// copies with it before marker substitution begins.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// ExtractText opens a DOCX file and returns its full text.
func ExtractText(path string) (string, error) {
	doc, err := Open(path)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}
