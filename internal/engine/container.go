// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/doctoolbox/internal/container"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// DefaultImage is the conversion image used by the container backend.
const DefaultImage = "doctoolbox/libreoffice:latest"

// Container converts documents by piping them through a conversion image.
// The image reads a legacy document on stdin and writes the XML document to
// stdout.
type Container struct {
	rt    container.Runtime
	image string
}

// NewContainer returns an engine that runs image with rt.
func NewContainer(rt container.Runtime, image string) *Container {
	if image == "" {
		image = DefaultImage
	}
	return &Container{rt: rt, image: image}
}

func (c *Container) Name() string { return c.rt.Name() + ":" + c.image }

// NewSession verifies the image is present. Containers are started per
// document, so the session holds no process.
func (c *Container) NewSession(ctx context.Context) (Session, error) {
	if err := c.rt.ImageExists(ctx, c.image); err != nil {
		return nil, fmt.Errorf("conversion image not available in %s: %w", c.rt.Name(), err)
	}
	return &containerSession{engine: c}, nil
}

type containerSession struct {
	engine *Container
}

func (s *containerSession) Open(_ context.Context, path string) (Document, error) {
	if err := checkOpenable(path); err != nil {
		return nil, err
	}
	return &containerDocument{engine: s.engine, path: path}, nil
}

func (s *containerSession) Quit() error { return nil }

type containerDocument struct {
	engine *Container

	mu     sync.Mutex
	path   string
	staged string
	closed bool
}

func (d *containerDocument) SaveAs(ctx context.Context, path string, format Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("saving %s: document is closed", d.path)
	}
	if format != FormatXMLDocument {
		return fmt.Errorf("saving %s as %s: %w", d.path, format, ErrUnsupportedFormat)
	}

	src, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", d.path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), types.WorkPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	d.staged = tmp.Name()

	runErr := d.engine.rt.Run(ctx, d.engine.image, src, tmp)
	closeErr := tmp.Close()
	if runErr != nil {
		return fmt.Errorf("converting %s: %w", d.path, runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := replaceFile(d.staged, path); err != nil {
		return err
	}
	d.staged = ""
	return nil
}

// Close removes any staged output left by a failed SaveAs.
func (d *containerDocument) Close(discard bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.staged == "" {
		return nil
	}
	if err := os.Remove(d.staged); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing staged output %s: %w", d.staged, err)
	}
	return nil
}
