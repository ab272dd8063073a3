//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "lw"
	binaryDir  = "bin"
	cmdDir     = "./cmd/lw"
	versionVar = "github.com/vanderheijden86/loanwalk/pkg/version.Version"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the lw binary to bin/.
// Set LW_VERSION to stamp a release version.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v"}
	if v := os.Getenv("LW_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
