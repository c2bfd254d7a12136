//go:build mage

// Package main provides build targets for the gridbase project using Mage.
//
// Usage:
//
//	mage build          Compile the gridbase binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests of the packages that need no database
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write coverage to bin/cover.out and print a summary
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install gridbase to GOPATH/bin
//	mage stats          Print Go line counts per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "gridbase"
	binaryDir  = "bin"
	cmdDir     = "./cmd/gridbase"
	modulePath = "github.com/mesh-intelligence/gridbase"
)

// Build compiles the gridbase binary to bin/, stamping the version from
// $GRIDBASE_VERSION when it is set.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("GRIDBASE_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+modulePath+"/internal/cli.Version="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
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
