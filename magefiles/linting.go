//go:build mage

package main

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const (
	GO_VERSION_CONSTRAINT            = ">= 1.18.0"
	GOLANGCI_LINT_VERSION_CONSTRAINT = ">= 1.52.0"
)

func checkVersion(tool, found, constraintText string) error {
	version, err := semver.NewVersion(found)
	if err != nil {
		return errors.Errorf("error parsing %s version %q: %v", tool, found, err)
	}
	constraint, err := semver.NewConstraint(constraintText)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !constraint.Check(version) {
		return errors.Errorf("found %s version %v but it failed constraint %v", tool, version, constraint)
	}
	return nil
}

// Check if the version of golangci-lint meets the predefined constraints
func golangciLintCheck() error {
	output, err := golangcilintOutput("--version")
	if err != nil {
		return errors.Errorf("error running version cmd: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 4 {
		return errors.Errorf("unexpected version cmd output: %s", output)
	}
	return checkVersion("golangci-lint", strings.TrimPrefix(fields[3], "v"), GOLANGCI_LINT_VERSION_CONSTRAINT)
}

// Fixing Linting
func LintFix() error {
	mg.Deps(golangciLintCheck)
	output, err := golangcilintOutput("run", "--fix", "--timeout", "10m")
	if err != nil {
		fmt.Printf("Output: %s\n", output)
	}
	return err
}

// Linting Check
func CheckLint() error {
	mg.Deps(golangciLintCheck)
	output, err := golangcilintOutput("run", "--timeout", "10m")
	if err != nil {
		fmt.Printf("Output: %s\n", output)
	}
	return err
}

func golangcilintOutput(args ...string) (string, error) {
	return sh.Output(binaryWithExt("golangci-lint"), args...)
}
