//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "brief"
	pkgPath = "github.com/dkoosis/brief"
)

// Default target - build the binary
var Default = Build

// ldflags stamps build metadata into internal/version.
func ldflags() string {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("-s -w -X %[1]s/internal/version.Version=%[2]s -X %[1]s/internal/version.CommitHash=%[3]s -X %[1]s/internal/version.BuildDate=%[4]s",
		pkgPath, version, commit, time.Now().UTC().Format(time.RFC3339))
}

// Build builds the brief binary
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binDir+"/"+binName, "./cmd/brief")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binDir)
}

// Demo builds brief and replays the sample suite
func Demo() error {
	mg.Deps(Build)
	return sh.RunV(binDir+"/"+binName, "demo", "--verbosity", "info")
}

// QA runs formatting, vet, lint, and the race-enabled test suite
func QA() error {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci, Test.Race)
	return nil
}

type Lint mg.Namespace

// All runs every linter
func (Lint) All() error {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci)
	return nil
}

// Format checks gofmt
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint when installed
func (Lint) Golangci() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
}

type Test mg.Namespace

// All runs the test suite
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Coverage writes coverage.out
func (Test) Coverage() error {
	return sh.RunV("go", "test", "-coverprofile=coverage.out", "./...")
}

// Race runs the tests with the race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}
