//go:build mage

// Package main contains Mage build targets for doctoolbox developer tooling.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "doctoolbox"
	cmdPkg  = "./cmd/doctoolbox"

	imageName = "doctoolbox/libreoffice:latest"
	imageDir  = "build/libreoffice"
)

// Default is the target run by a bare "mage".
var Default = Build

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Image builds the container image used by the container engine with the
// first available runtime (docker, then podman).
func Image() error {
	runtime := ""
	for _, name := range []string{"docker", "podman"} {
		if _, err := exec.LookPath(name); err == nil {
			runtime = name
			break
		}
	}
	if runtime == "" {
		return fmt.Errorf("no container runtime found (need docker or podman)")
	}
	return sh.RunV(runtime, "build", "-t", imageName, imageDir)
}

// Install builds the binary and copies it to $GOBIN (or ~/go/bin).
func Install() error {
	mg.Deps(Build)
	dir := os.Getenv("GOBIN")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, "go", "bin")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return sh.Copy(filepath.Join(dir, binName), filepath.Join(binDir, binName))
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binDir)
}
