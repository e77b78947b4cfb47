// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/doctoolbox/pkg/types"
)

const defaultSoffice = "soffice"

// filters maps output formats to LibreOffice --convert-to arguments.
var filters = map[Format]struct {
	arg string
	ext string
}{
	FormatXMLDocument: {arg: "docx:MS Word 2007 XML", ext: ".docx"},
}

// quietFlags keep LibreOffice invisible and free of dialogs.
var quietFlags = []string{"--headless", "--invisible", "--nologo", "--norestore", "--nodefault"}

// executor abstracts command execution for testing.
type executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Soffice converts documents with a local headless LibreOffice. Each session
// owns a private user profile so concurrent sessions do not contend for the
// profile lock.
type Soffice struct {
	bin  string
	exec executor
}

// NewSoffice returns an engine running bin (default "soffice").
func NewSoffice(bin string) *Soffice {
	if bin == "" {
		bin = defaultSoffice
	}
	return &Soffice{bin: bin, exec: osExecutor{}}
}

func (s *Soffice) Name() string { return "soffice" }

// NewSession creates a profile directory and starts LibreOffice once against
// it so the first conversion does not pay profile initialization.
func (s *Soffice) NewSession(ctx context.Context) (Session, error) {
	profile, err := os.MkdirTemp("", "doctoolbox-profile-*")
	if err != nil {
		return nil, fmt.Errorf("creating engine profile: %w", err)
	}
	sess := &sofficeSession{engine: s, profile: profile}

	args := append(sess.baseArgs(), "--terminate_after_init")
	if out, err := s.exec.Run(ctx, s.bin, args...); err != nil {
		os.RemoveAll(profile)
		return nil, fmt.Errorf("starting %s: %w%s", s.bin, err, outputSuffix(out))
	}
	return sess, nil
}

type sofficeSession struct {
	engine  *Soffice
	profile string
}

func (s *sofficeSession) baseArgs() []string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(s.profile)}
	return append([]string{"-env:UserInstallation=" + u.String()}, quietFlags...)
}

func (s *sofficeSession) Open(_ context.Context, path string) (Document, error) {
	if err := checkOpenable(path); err != nil {
		return nil, err
	}
	return &sofficeDocument{session: s, path: path}, nil
}

// Quit removes the session profile.
func (s *sofficeSession) Quit() error {
	if err := os.RemoveAll(s.profile); err != nil {
		return fmt.Errorf("removing engine profile %s: %w", s.profile, err)
	}
	return nil
}

type sofficeDocument struct {
	session *sofficeSession

	mu      sync.Mutex
	path    string
	staging string
	closed  bool
}

// SaveAs converts into a staging directory beside path and renames the
// result onto path.
func (d *sofficeDocument) SaveAs(ctx context.Context, path string, format Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("saving %s: document is closed", d.path)
	}

	filter, ok := filters[format]
	if !ok {
		return fmt.Errorf("saving %s as %s: %w", d.path, format, ErrUnsupportedFormat)
	}

	staging, err := os.MkdirTemp(filepath.Dir(path), types.WorkPrefix+"stage-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	d.staging = staging

	args := append(d.session.baseArgs(), "--convert-to", filter.arg, "--outdir", staging, d.path)
	out, err := d.session.engine.exec.Run(ctx, d.session.engine.bin, args...)
	if err != nil {
		return fmt.Errorf("converting %s: %w%s", d.path, err, outputSuffix(out))
	}

	base := strings.TrimSuffix(filepath.Base(d.path), filepath.Ext(d.path))
	return replaceFile(filepath.Join(staging, base+filter.ext), path)
}

// Close removes the staging directory. LibreOffice holds nothing open
// between invocations, so discard only matters for staged output.
func (d *sofficeDocument) Close(discard bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.staging == "" {
		return nil
	}
	if err := os.RemoveAll(d.staging); err != nil {
		return fmt.Errorf("removing staging directory %s: %w", d.staging, err)
	}
	return nil
}

func outputSuffix(out []byte) string {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return ""
	}
	return ": " + msg
}
