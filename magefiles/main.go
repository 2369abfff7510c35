//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const buildPackage = "github.com/tinarmengineering/ltc/internal/ltcctl/build"

var LocalBin = filepath.Join(os.Getenv("PWD"), "/bin")

func makeLocalBin() error {
	if _, err := os.Stat(LocalBin); os.IsNotExist(err) {
		return os.MkdirAll(LocalBin, os.ModePerm)
	}
	return nil
}

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}

// Build compiles ltcctl into ./bin, stamping it with the release version and commit.
func Build() error {
	mg.Deps(makeLocalBin, goCheck)
	version := os.Getenv("RELEASE_VERSION")
	if version == "" {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	ldflags := strings.Join([]string{
		fmt.Sprintf("-X '%s.ReleaseVersion=%s'", buildPackage, version),
		fmt.Sprintf("-X '%s.GitCommit=%s'", buildPackage, commit),
		fmt.Sprintf("-X '%s.BuildTime=%s'", buildPackage, time.Now().UTC().Format(time.RFC3339)),
	}, " ")
	return sh.Run("go", "build", "-ldflags", ldflags, "-o", filepath.Join(LocalBin, binaryWithExt("ltcctl")), "./cmd/ltcctl")
}

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Removes build and test output.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "test_reports"} {
		os.RemoveAll(path)
	}
}

func goCheck() error {
	output, err := sh.Output("go", "version")
	if err != nil {
		return errors.Errorf("error running go version: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return errors.Errorf("unexpected go version output: %s", output)
	}
	return checkVersion("go", strings.TrimPrefix(fields[2], "go"), GO_VERSION_CONSTRAINT)
}
