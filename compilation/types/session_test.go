package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession creates a session rooted at a temporary directory.
func newTestSession(t *testing.T) *Session {
	session, err := NewSession(t.TempDir())
	require.NoError(t, err)
	return session
}

// TestResolveFilenameViews tests that resolving a relative path populates all four views consistently.
func TestResolveFilenameViews(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	filename, err := session.ResolveFilename("contracts/Token.sol", StripRootPrefixes("contracts"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(session.WorkingDir, "contracts", "Token.sol"), filename.Absolute)
	assert.Equal(t, "contracts/Token.sol", filename.Relative)
	assert.Equal(t, "contracts/Token.sol", filename.Used)
	assert.Equal(t, "Token.sol", filename.Short)
}

// TestResolveFilenamePointerIdentity tests that resolving the same file twice yields the identical
// *Filename value, even when the reported path spellings differ.
func TestResolveFilenamePointerIdentity(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	first, err := session.ResolveFilename("contracts/Token.sol", nil)
	require.NoError(t, err)

	// Resolve the same file through its absolute spelling.
	second, err := session.ResolveFilename(first.Absolute, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// And through a cleanable relative spelling.
	third, err := session.ResolveFilename("contracts/../contracts/Token.sol", nil)
	require.NoError(t, err)
	assert.Same(t, first, third)
}

// TestResolveFilenameEmptyPath tests that an empty reported path is rejected with a resolution error.
func TestResolveFilenameEmptyPath(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	_, err := session.ResolveFilename("", nil)
	require.Error(t, err)
	assert.IsType(t, &PathResolutionError{}, err)
}

// TestRegisterFilenameDeduplicates tests that registering a pre-built filename for a known absolute path
// returns the previously known identity.
func TestRegisterFilenameDeduplicates(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	first, err := session.ResolveFilename("Token.sol", nil)
	require.NoError(t, err)

	duplicate := &Filename{Absolute: first.Absolute, Relative: "Token.sol", Used: "Token.sol", Short: "Token.sol"}
	assert.Same(t, first, session.RegisterFilename(duplicate))
}

// TestDependencyPaths tests membership of the session's dependency set.
func TestDependencyPaths(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	session.AddDependencyPaths("/abs/lib/math.sol", "lib/math.sol")

	assert.True(t, session.IsDependency("/abs/lib/math.sol"))
	assert.True(t, session.IsDependency("lib/math.sol"))
	assert.False(t, session.IsDependency("src/Token.sol"))
}

// TestRebuildFilenames tests that the filename set is recomputed as the union of every unit's contract
// filenames.
func TestRebuildFilenames(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	unit := session.NewCompilationUnit("unit")
	filename, err := session.ResolveFilename("Token.sol", nil)
	require.NoError(t, err)
	unit.AddContract("Token", filename)

	// A resolved file no unit references must not survive the rebuild.
	_, err = session.ResolveFilename("Unused.sol", nil)
	require.NoError(t, err)

	session.RebuildFilenames()
	assert.Len(t, session.Filenames, 1)
	assert.Same(t, filename, session.Filenames[filename.Absolute])
}

// TestSortedUnitKeys tests deterministic unit key ordering.
func TestSortedUnitKeys(t *testing.T) {
	t.Parallel()

	session := newTestSession(t)
	session.NewCompilationUnit("b")
	session.NewCompilationUnit("a")
	session.NewCompilationUnit("c")

	assert.Equal(t, []string{"a", "b", "c"}, session.SortedUnitKeys())
}
