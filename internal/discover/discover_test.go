// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownSet map[string]bool

func (k knownSet) Contains(path string) bool { return k[path] }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// touch creates the named files (slash-separated, relative to root).
func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func sortedPaths(t *testing.T, root, ext string, known Known) []string {
	t.Helper()
	got, err := Scan(root, ext, known, quietLogger())
	require.NoError(t, err)
	paths := Paths(got)
	sort.Strings(paths)
	return paths
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"a.doc",
		"B.DOC",
		"notes.docx",
		"~$a.doc",
		"sub/c.doc",
		"sub/deeper/d.Doc",
		"sub/deeper/~$d.doc",
		"sub/readme.txt",
		"doc",
	)

	got := sortedPaths(t, root, ".doc", nil)
	want := []string{
		filepath.Join(root, "B.DOC"),
		filepath.Join(root, "a.doc"),
		filepath.Join(root, "sub", "c.doc"),
		filepath.Join(root, "sub", "deeper", "d.Doc"),
	}
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_DocxIsNotDoc(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.doc", "a.docx")

	assert.Equal(t, []string{filepath.Join(root, "a.docx")}, sortedPaths(t, root, ".docx", nil))
	assert.Equal(t, []string{filepath.Join(root, "a.doc")}, sortedPaths(t, root, ".doc", nil))
}

func TestScan_ExcludesKnownPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.doc", "b.doc", "sub/c.doc")

	known := knownSet{
		filepath.Join(root, "a.doc"):        true,
		filepath.Join(root, "sub", "c.doc"): true,
		filepath.Join(root, "zzz.doc"):      true,
	}
	assert.Equal(t, []string{filepath.Join(root, "b.doc")}, sortedPaths(t, root, ".doc", known))
}

func TestScan_RelativeRootYieldsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x/a.doc")

	t.Chdir(root)

	got, err := Scan(".", ".doc", nil, quietLogger())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0].Path))
	assert.Equal(t, ".doc", got[0].Ext)
	assert.Equal(t, "a.doc", filepath.Base(got[0].Path))
}

func TestScan_SkipsWorkEntries(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"keep.docx",
		".doctoolbox-stage-123/keep.docx",
		"sub/.doctoolbox-stage-9/nested/orphan.docx",
		"sub/.doctoolbox-77.docx",
	)

	got := sortedPaths(t, root, ".docx", nil)
	want := []string{filepath.Join(root, "keep.docx")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), ".doc", nil, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestIsLockFile(t *testing.T) {
	assert.True(t, IsLockFile("~$report.doc"))
	assert.False(t, IsLockFile("report~$.doc"))
	assert.False(t, IsLockFile("~report.doc"))
}
