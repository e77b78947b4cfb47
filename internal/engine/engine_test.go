// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSoffice imitates LibreOffice: --convert-to writes "<base>.docx" into
// --outdir with the source content prefixed.
type fakeSoffice struct {
	mu        sync.Mutex
	calls     [][]string
	startErr  error
	convErr   error
	emptyConv bool
}

func (f *fakeSoffice) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if hasArg(args, "--terminate_after_init") {
		if f.startErr != nil {
			return []byte("javaldx: could not find a Java Runtime"), f.startErr
		}
		return nil, nil
	}
	if f.convErr != nil {
		return []byte("Error: source file could not be loaded"), f.convErr
	}

	outdir := argAfter(args, "--outdir")
	src := args[len(args)-1]
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	content := []byte("docx:" + string(data))
	if f.emptyConv {
		content = nil
	}
	return nil, os.WriteFile(filepath.Join(outdir, base+".docx"), content, 0o644)
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func profileFrom(t *testing.T, args []string) string {
	t.Helper()
	for _, a := range args {
		if rest, ok := strings.CutPrefix(a, "-env:UserInstallation=file://"); ok {
			return filepath.FromSlash(rest)
		}
	}
	t.Fatalf("no UserInstallation in %v", args)
	return ""
}

func newFakeSoffice(f *fakeSoffice) *Soffice {
	s := NewSoffice("")
	s.exec = f
	return s
}

func writeLegacy(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestSoffice_SessionLifecycle(t *testing.T) {
	fake := &fakeSoffice{}
	eng := newFakeSoffice(fake)

	sess, err := eng.NewSession(context.Background())
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	warm := fake.calls[0]
	assert.Equal(t, "soffice", warm[0])
	assert.Contains(t, warm, "--headless")
	assert.Contains(t, warm, "--terminate_after_init")
	profile := profileFrom(t, warm)
	assert.DirExists(t, profile)

	require.NoError(t, sess.Quit())
	assert.NoDirExists(t, profile)
}

func TestSoffice_SessionStartFailureCleansProfile(t *testing.T) {
	fake := &fakeSoffice{startErr: errors.New("exit status 1")}

	_, err := newFakeSoffice(fake).NewSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting soffice")
	assert.Contains(t, err.Error(), "Java Runtime")
	assert.NoDirExists(t, profileFrom(t, fake.calls[0]))
}

func TestSoffice_SaveAs(t *testing.T) {
	tests := []struct {
		name       string
		fake       *fakeSoffice
		preTarget  bool
		format     Format
		wantErr    string
		wantTarget string
	}{
		{
			name:       "writes target",
			fake:       &fakeSoffice{},
			format:     FormatXMLDocument,
			wantTarget: "docx:legacy bytes",
		},
		{
			name:       "replaces existing target from an interrupted run",
			fake:       &fakeSoffice{},
			preTarget:  true,
			format:     FormatXMLDocument,
			wantTarget: "docx:legacy bytes",
		},
		{
			name:       "conversion failure keeps existing target",
			fake:       &fakeSoffice{convErr: errors.New("exit status 1")},
			preTarget:  true,
			format:     FormatXMLDocument,
			wantErr:    "source file could not be loaded",
			wantTarget: "partial",
		},
		{
			name:    "empty output is an error",
			fake:    &fakeSoffice{emptyConv: true},
			format:  FormatXMLDocument,
			wantErr: "empty output",
		},
		{
			name:    "unsupported format",
			fake:    &fakeSoffice{},
			format:  Format(17),
			wantErr: "unsupported output format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeLegacy(t, dir, "report.doc", "legacy bytes")
			target := filepath.Join(dir, "report.docx")
			if tt.preTarget {
				require.NoError(t, os.WriteFile(target, []byte("partial"), 0o644))
			}

			sess, err := newFakeSoffice(tt.fake).NewSession(context.Background())
			require.NoError(t, err)
			defer sess.Quit()

			doc, err := sess.Open(context.Background(), src)
			require.NoError(t, err)

			err = doc.SaveAs(context.Background(), target, tt.format)
			require.NoError(t, doc.Close(err != nil))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantTarget != "" {
				data, readErr := os.ReadFile(target)
				require.NoError(t, readErr)
				assert.Equal(t, tt.wantTarget, string(data))
			}

			// Source untouched; no staging directories left behind.
			data, err := os.ReadFile(src)
			require.NoError(t, err)
			assert.Equal(t, "legacy bytes", string(data))
			leftovers, err := filepath.Glob(filepath.Join(dir, ".doctoolbox-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestSoffice_Open(t *testing.T) {
	dir := t.TempDir()
	src := writeLegacy(t, dir, "memo.doc", "x")

	sess, err := newFakeSoffice(&fakeSoffice{}).NewSession(context.Background())
	require.NoError(t, err)
	defer sess.Quit()

	_, err = sess.Open(context.Background(), filepath.Join(dir, "missing.doc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = sess.Open(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".~lock.memo.doc#"), []byte("user"), 0o644))
	_, err = sess.Open(context.Background(), src)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestSoffice_ClosedDocumentRejectsSave(t *testing.T) {
	dir := t.TempDir()
	src := writeLegacy(t, dir, "memo.doc", "x")

	sess, err := newFakeSoffice(&fakeSoffice{}).NewSession(context.Background())
	require.NoError(t, err)
	defer sess.Quit()

	doc, err := sess.Open(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, doc.Close(true))
	require.NoError(t, doc.Close(true), "Close is idempotent")

	err = doc.SaveAs(context.Background(), filepath.Join(dir, "memo.docx"), FormatXMLDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	imageErr error
	runErr   error
	output   string
}

func (f *fakeRuntime) Name() string                              { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool            { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }

func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	if f.runErr != nil {
		return f.runErr
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, f.output+string(data))
	return err
}

func TestContainer_SaveAs(t *testing.T) {
	dir := t.TempDir()
	src := writeLegacy(t, dir, "a.doc", "legacy")
	target := filepath.Join(dir, "a.docx")

	eng := NewContainer(&fakeRuntime{output: "docx:"}, "")
	assert.Equal(t, "docker:"+DefaultImage, eng.Name())

	sess, err := eng.NewSession(context.Background())
	require.NoError(t, err)
	defer sess.Quit()

	doc, err := sess.Open(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, doc.SaveAs(context.Background(), target, FormatXMLDocument))
	require.NoError(t, doc.Close(false))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "docx:legacy", string(data))
}

func TestContainer_Failures(t *testing.T) {
	t.Run("missing image fails session init", func(t *testing.T) {
		eng := NewContainer(&fakeRuntime{imageErr: errors.New("no such image")}, "img:1")
		_, err := eng.NewSession(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conversion image not available")
	})

	t.Run("run failure leaves no staged file", func(t *testing.T) {
		dir := t.TempDir()
		src := writeLegacy(t, dir, "a.doc", "legacy")

		sess, err := NewContainer(&fakeRuntime{runErr: errors.New("exit status 77")}, "").NewSession(context.Background())
		require.NoError(t, err)
		doc, err := sess.Open(context.Background(), src)
		require.NoError(t, err)

		err = doc.SaveAs(context.Background(), filepath.Join(dir, "a.docx"), FormatXMLDocument)
		require.Error(t, err)
		require.NoError(t, doc.Close(true))

		leftovers, err := filepath.Glob(filepath.Join(dir, ".doctoolbox-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
		assert.NoFileExists(t, filepath.Join(dir, "a.docx"))
	})

	t.Run("empty output is an error", func(t *testing.T) {
		dir := t.TempDir()
		src := writeLegacy(t, dir, "a.doc", "")

		sess, err := NewContainer(&fakeRuntime{}, "").NewSession(context.Background())
		require.NoError(t, err)
		doc, err := sess.Open(context.Background(), src)
		require.NoError(t, err)
		defer doc.Close(true)

		err = doc.SaveAs(context.Background(), filepath.Join(dir, "a.docx"), FormatXMLDocument)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty output")
	})
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "xml-document", FormatXMLDocument.String())
	assert.Equal(t, "format(0)", Format(0).String())
}
