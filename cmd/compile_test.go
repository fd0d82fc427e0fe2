package cmd

import (
	"testing"

	"github.com/crytic/unibuild/cmd/exitcodes"
	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// TestCompileFailureExitCode tests that rejected archive imports and build platform failures map to
// their respective process exit codes, including when the archive error arrives wrapped.
func TestCompileFailureExitCode(t *testing.T) {
	t.Parallel()

	malformed := &platforms.MalformedArtifactError{Unit: "unit0", Contract: "Token", Key: "abi"}
	assert.Equal(t, exitcodes.ExitCodeMalformedArtifact, compileFailureExitCode(malformed))
	assert.Equal(t, exitcodes.ExitCodeMalformedArtifact, compileFailureExitCode(errors.Wrap(malformed, "could not load archive")))
	assert.Equal(t, exitcodes.ExitCodeCompilationFailed, compileFailureExitCode(errors.New("solc exited with status 1")))
}
