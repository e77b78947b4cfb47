// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docxtest builds minimal WordprocessingML packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// Image is an opaque media part included in every built package so tests
// can check that untouched parts survive a save.
var Image = []byte("\x89PNG\r\n\x1a\nnot-really-a-png")

// Document wraps body (the inner XML of w:body) in a document part.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
		`xmlns:v="urn:schemas-microsoft-com:vml">` +
		`<w:body>` + body + `<w:sectPr/></w:body></w:document>`
}

// Package returns a .docx package whose body is body.
func Package(t testing.TB, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name   string
		data   []byte
		method uint16
	}{
		{"[Content_Types].xml", []byte(contentTypes), zip.Deflate},
		{"_rels/.rels", []byte(rels), zip.Deflate},
		{"word/document.xml", []byte(Document(body)), zip.Deflate},
		{"word/media/image1.png", Image, zip.Store},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: p.method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(p.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Write creates a .docx at path whose body is body, creating missing
// parent directories.
func Write(t testing.TB, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, Package(t, body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Markup helpers for body fragments.

// P wraps runs in a paragraph.
func P(runs ...string) string { return "<w:p>" + join(runs) + "</w:p>" }

// R wraps inline items in a run.
func R(items ...string) string { return "<w:r>" + join(items) + "</w:r>" }

// T is a text item.
func T(s string) string { return `<w:t xml:space="preserve">` + s + "</w:t>" }

// Drawing is a DrawingML graphical object.
func Drawing(id string) string {
	return `<w:drawing><wp:inline><wp:docPr id="` + id + `" name="Picture ` + id + `"/></wp:inline></w:drawing>`
}

// Pict is a VML picture.
func Pict(id string) string {
	return `<w:pict><v:shape id="` + id + `"/></w:pict>`
}

// Tbl builds a table; each row is a list of cells, each cell a body fragment.
func Tbl(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<w:tbl>")
	for _, cells := range rows {
		b.WriteString("<w:tr>")
		for _, c := range cells {
			b.WriteString("<w:tc>" + c + "</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// Row is a convenience for Tbl arguments.
func Row(cells ...string) []string { return cells }

func join(parts []string) string { return strings.Join(parts, "") }
