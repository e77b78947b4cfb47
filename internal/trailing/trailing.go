// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trailing finds the last meaningful content of a WordprocessingML
// body and, when that content is a graphical object, identifies it for
// removal.
//
// The body is first linearized into paragraphs in reading order, descending
// into tables (row-major, depth-first) and block-level content controls.
// Scan then walks paragraphs, runs and inline items in reverse and stops at
// the first decisive item:
//
//   - non-empty text: the document ends in text (TextFound);
//   - a drawing or picture: it is the trailing image (Removed).
//
// Paragraphs with neither are skipped. Scan never mutates the tree;
// Result.Apply performs the single removal.
package trailing

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/doctoolbox/internal/docx"
)

// mcNS is the markup-compatibility namespace Word uses to wrap shapes in
// mc:AlternateContent.
const mcNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"

// State is the scanner's position in its state machine.
type State int

const (
	// Scanning means no decisive item was found; every paragraph was empty.
	Scanning State = iota
	// TextFound means the document ends in non-empty text.
	TextFound
	// Removed means a graphical object is the trailing content and is the
	// removal target.
	Removed
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case TextFound:
		return "text-found"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Result is the terminal state of a scan.
type Result struct {
	State State

	// Paragraph and Run locate the decisive item; nil while Scanning.
	Paragraph *etree.Element
	Run       *etree.Element

	// Target is the graphical object to remove when State is Removed.
	Target *etree.Element
}

// Apply detaches Target from its run. It reports whether an element was
// removed and is a no-op for any state other than Removed.
func (r Result) Apply() bool {
	if r.State != Removed || r.Run == nil || r.Target == nil {
		return false
	}
	return r.Run.RemoveChild(r.Target) != nil
}

// Paragraphs returns every paragraph under body in document order.
func Paragraphs(body *etree.Element) []*etree.Element {
	var out []*etree.Element
	collect(body, &out)
	return out
}

func collect(parent *etree.Element, out *[]*etree.Element) {
	for _, child := range parent.ChildElements() {
		switch {
		case docx.IsW(child, "p"):
			*out = append(*out, child)
		case docx.IsW(child, "tbl"):
			for _, row := range unwrap(child, "tr") {
				for _, cell := range unwrap(row, "tc") {
					collect(cell, out)
				}
			}
		case docx.IsW(child, "sdt"):
			for _, content := range child.ChildElements() {
				if docx.IsW(content, "sdtContent") {
					collect(content, out)
				}
			}
		}
	}
}

// unwrap returns the children of parent named tag, looking through content
// controls that wrap rows or cells.
func unwrap(parent *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		switch {
		case docx.IsW(child, tag):
			out = append(out, child)
		case docx.IsW(child, "sdt"):
			for _, content := range child.ChildElements() {
				if docx.IsW(content, "sdtContent") {
					out = append(out, unwrap(content, tag)...)
				}
			}
		}
	}
	return out
}

// runContainers are inline wrappers whose runs belong to the paragraph's
// visible content.
var runContainers = map[string]bool{
	"hyperlink":  true,
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"sdt":        true,
	"sdtContent": true,
}

// Runs returns the runs of paragraph p in reading order.
func Runs(p *etree.Element) []*etree.Element {
	var out []*etree.Element
	collectRuns(p, &out)
	return out
}

func collectRuns(parent *etree.Element, out *[]*etree.Element) {
	for _, child := range parent.ChildElements() {
		if docx.IsW(child, "r") {
			*out = append(*out, child)
			continue
		}
		if child.NamespaceURI() == docx.NS && runContainers[child.Tag] {
			collectRuns(child, out)
		}
	}
}

// item classifies one inline element of a run.
type item int

const (
	itemOther item = iota
	itemText
	itemGraphic
)

func classify(el *etree.Element) item {
	switch {
	case docx.IsW(el, "t"):
		if strings.TrimSpace(el.Text()) != "" {
			return itemText
		}
	case docx.IsW(el, "drawing"), docx.IsW(el, "pict"):
		return itemGraphic
	case el.Tag == "AlternateContent" && el.NamespaceURI() == mcNS:
		if wrapsGraphic(el) {
			return itemGraphic
		}
	}
	return itemOther
}

// wrapsGraphic reports whether an mc:AlternateContent block renders as a
// drawing or picture in any of its branches.
func wrapsGraphic(el *etree.Element) bool {
	for _, branch := range el.ChildElements() {
		for _, c := range branch.ChildElements() {
			if docx.IsW(c, "drawing") || docx.IsW(c, "pict") {
				return true
			}
		}
	}
	return false
}

// Scan walks paragraphs from last to first and returns the terminal state.
func Scan(paragraphs []*etree.Element) Result {
	res := Result{State: Scanning}
	for i := len(paragraphs) - 1; i >= 0 && res.State == Scanning; i-- {
		res = scanParagraph(paragraphs[i])
	}
	return res
}

// scanParagraph returns the first decisive item of p in reverse order, or a
// Scanning result when p holds neither text nor graphics.
func scanParagraph(p *etree.Element) Result {
	runs := Runs(p)
	for ri := len(runs) - 1; ri >= 0; ri-- {
		run := runs[ri]
		items := run.ChildElements()
		for ii := len(items) - 1; ii >= 0; ii-- {
			switch classify(items[ii]) {
			case itemText:
				return Result{State: TextFound, Paragraph: p, Run: run}
			case itemGraphic:
				return Result{State: Removed, Paragraph: p, Run: run, Target: items[ii]}
			}
		}
	}
	return Result{State: Scanning}
}

// ScanBody linearizes body and scans it.
func ScanBody(body *etree.Element) Result {
	return Scan(Paragraphs(body))
}
