// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doctoolbox/internal/docx"
	dt "github.com/pdiddy/doctoolbox/internal/docx/docxtest"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.docx")
	dt.Write(t, path, dt.P(dt.R(dt.T("Hello"))))

	doc, err := docx.Open(path)
	require.NoError(t, err)

	body := doc.Body()
	require.NotNil(t, body)
	assert.True(t, docx.IsW(body, "body"))
	children := body.ChildElements()
	require.Len(t, children, 2)
	assert.True(t, docx.IsW(children[0], "p"))
	assert.True(t, docx.IsW(children[1], "sectPr"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    func(t *testing.T) []byte
		wantErr string
	}{
		{
			name:    "not a zip",
			data:    func(*testing.T) []byte { return []byte("legacy binary") },
			wantErr: "reading package",
		},
		{
			name: "missing document part",
			data: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{"[Content_Types].xml": "<Types/>"})
			},
			wantErr: "no word/document.xml part",
		},
		{
			name: "wrong root",
			data: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{docx.DocumentPart: `<html><body/></html>`})
			},
			wantErr: "not a WordprocessingML document",
		},
		{
			name: "no body",
			data: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{
					docx.DocumentPart: `<w:document xmlns:w="` + docx.NS + `"/>`,
				})
			},
			wantErr: "has no body",
		},
		{
			name: "malformed xml",
			data: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{docx.DocumentPart: `<w:document`})
			},
			wantErr: "parsing word/document.xml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := docx.Parse(tt.data(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_PersistsEditsAndKeepsOtherParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.docx")
	dt.Write(t, path, dt.P(dt.R(dt.T("Hello"), dt.Drawing("1"))))
	before := readParts(t, path)

	doc, err := docx.Open(path)
	require.NoError(t, err)

	run := doc.Body().ChildElements()[0].ChildElements()[0]
	require.True(t, docx.IsW(run, "r"))
	drawing := run.ChildElements()[1]
	require.True(t, docx.IsW(drawing, "drawing"))
	run.RemoveChild(drawing)

	require.NoError(t, doc.Save(path))

	after := readParts(t, path)
	assert.Equal(t, before["word/media/image1.png"], after["word/media/image1.png"])
	assert.Equal(t, before["_rels/.rels"], after["_rels/.rels"])
	assert.NotContains(t, after[docx.DocumentPart], "w:drawing")
	assert.Contains(t, after[docx.DocumentPart], "Hello")
	assert.Contains(t, after[docx.DocumentPart], `standalone="yes"`)

	reopened, err := docx.Open(path)
	require.NoError(t, err)
	assert.Len(t, reopened.Body().ChildElements(), 2)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".docx-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSave_UnchangedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.docx")
	dt.Write(t, path, dt.P(dt.R(dt.T("Hello"))))

	doc, err := docx.Open(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	again, err := docx.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, again.Body().ChildElements(), 2)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := docx.Open(filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_NestedFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "deeper", "a.docx")
	dt.Write(t, path, dt.P(dt.R(dt.T("nested"))))

	doc, err := docx.Open(path)
	require.NoError(t, err)
	assert.Len(t, doc.Body().ChildElements(), 2)
}

func zipOf(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readParts(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}
