// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx loads and saves WordprocessingML packages. Only the main
// document part is parsed; every other part is carried through unchanged.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// NS is the WordprocessingML main namespace.
const NS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocumentPart is the package path of the main document part.
const DocumentPart = "word/document.xml"

// Document is an opened package with its main part parsed.
type Document struct {
	files   []*zip.File
	comment string
	xml     *etree.Document
	body    *etree.Element
}

// Open reads the package at path into memory.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a package from data.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading package: %w", err)
	}

	d := &Document{files: zr.File, comment: zr.Comment}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == DocumentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("package has no %s part", DocumentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", DocumentPart, err)
	}
	defer rc.Close()

	d.xml = etree.NewDocument()
	if _, err := d.xml.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DocumentPart, err)
	}

	root := d.xml.Root()
	if root == nil || root.Tag != "document" || root.NamespaceURI() != NS {
		return nil, fmt.Errorf("%s is not a WordprocessingML document", DocumentPart)
	}
	for _, child := range root.ChildElements() {
		if IsW(child, "body") {
			d.body = child
			break
		}
	}
	if d.body == nil {
		return nil, fmt.Errorf("%s has no body", DocumentPart)
	}
	return d, nil
}

// Body returns the w:body element. Edits to the tree are written by Save.
func (d *Document) Body() *etree.Element { return d.body }

// Save writes the package to path through a temporary file in the same
// directory, renamed into place once complete.
func (d *Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docx-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := d.Write(tmp)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, info.Mode().Perm())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Write serializes the package to w. Parts other than the main document
// are copied without recompression.
func (d *Document) Write(w io.Writer) error {
	part, err := d.xml.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", DocumentPart, err)
	}

	zw := zip.NewWriter(w)
	for _, f := range d.files {
		if f.Name == DocumentPart {
			hdr := f.FileHeader
			hdr.CRC32 = 0
			hdr.CompressedSize64 = 0
			hdr.UncompressedSize64 = 0
			fw, err := zw.CreateHeader(&hdr)
			if err != nil {
				return fmt.Errorf("writing %s: %w", f.Name, err)
			}
			if _, err := fw.Write(part); err != nil {
				return fmt.Errorf("writing %s: %w", f.Name, err)
			}
			continue
		}
		if err := copyRaw(zw, f); err != nil {
			return err
		}
	}
	if d.comment != "" {
		if err := zw.SetComment(d.comment); err != nil {
			return fmt.Errorf("writing package comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing package: %w", err)
	}
	return nil
}

func copyRaw(zw *zip.Writer, f *zip.File) error {
	hdr := f.FileHeader
	fw, err := zw.CreateRaw(&hdr)
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	r, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("copying %s: %w", f.Name, err)
	}
	return nil
}

// IsW reports whether el is the WordprocessingML element with local name tag.
func IsW(el *etree.Element, tag string) bool {
	return el != nil && el.Tag == tag && el.NamespaceURI() == NS
}
