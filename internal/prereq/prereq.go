// Package prereq verifies credentials and external binaries before a run
// does any work.
package prereq

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
)

// Checker verifies run prerequisites
type Checker struct {
	CredentialVar    string
	GeneratorCommand string

	// lookPath is swappable for tests
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// New creates a Checker for the given credential variable and generator command
func New(credentialVar, generatorCommand string) *Checker {
	return &Checker{
		CredentialVar:    credentialVar,
		GeneratorCommand: generatorCommand,
		lookPath:         exec.LookPath,
		getenv:           os.Getenv,
	}
}

// Check verifies that the credential is set and every binary the run needs
// is resolvable on PATH. It reports the first missing prerequisite with a
// remediation hint.
func (c *Checker) Check(spec domain.SDKSpec) error {
	if c.getenv(c.CredentialVar) == "" {
		return &domain.PrerequisiteError{
			Missing: c.CredentialVar,
			Remedy:  fmt.Sprintf("export %s with a valid API key", c.CredentialVar),
		}
	}

	binaries := append([]string{c.GeneratorCommand}, spec.RequiredBinaries...)
	for _, bin := range binaries {
		if _, err := c.lookPath(bin); err != nil {
			return &domain.PrerequisiteError{
				Missing: bin,
				Remedy:  fmt.Sprintf("install %s and ensure it is on PATH", bin),
			}
		}
	}

	return nil
}
