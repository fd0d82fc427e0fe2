package compilation

import (
	"os"
	"testing"
	"time"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/crytic/unibuild/compilation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHashSession creates a session with one unit and one populated contract.
func buildHashSession(t *testing.T, bytecode string) *types.Session {
	session, err := types.NewSession(t.TempDir())
	require.NoError(t, err)

	unit := session.NewCompilationUnit("unit0")
	filename, err := session.ResolveFilename("Token.sol", nil)
	require.NoError(t, err)
	unit.AddContract("Token", filename)
	unit.Abis["Token"] = []any{}
	unit.InitBytecodes["Token"] = bytecode
	unit.RuntimeBytecodes["Token"] = bytecode
	unit.SrcMapsInit["Token"] = []string{"0:1:0:-"}
	unit.SrcMapsRuntime["Token"] = []string{"0:1:0:-"}
	unit.Libraries["Token"] = map[string]string{}
	unit.Natspecs["Token"] = types.NewNatspec(nil, nil)
	require.NoError(t, unit.SetCompilerVersion(types.NewCompilerVersion("solc", "0.8.19", false)))
	return session
}

// TestComputeArtifactHashDeterministic tests that hashing the same session twice yields the same hash,
// and different bytecode yields a different one.
func TestComputeArtifactHashDeterministic(t *testing.T) {
	t.Parallel()

	session := buildHashSession(t, "6080604052")
	assert.Equal(t, ComputeArtifactHash(session), ComputeArtifactHash(session))

	other := buildHashSession(t, "6080604053")
	assert.NotEqual(t, ComputeArtifactHash(session), ComputeArtifactHash(other))
}

// TestArtifactCacheStoreAndLookup tests round-tripping cache entries through the database file.
func TestArtifactCacheStoreAndLookup(t *testing.T) {
	t.Parallel()

	exportDir := t.TempDir()
	cache, err := OpenArtifactCache(exportDir)
	require.NoError(t, err)

	assert.Nil(t, cache.Lookup("target"))

	entry := &ArtifactCacheEntry{Hash: "abc", Timestamp: time.Now(), Path: "/export/contracts_export.json"}
	require.NoError(t, cache.Store("target", entry))
	require.NoError(t, cache.Close())

	// Entries survive reopening the database.
	cache, err = OpenArtifactCache(exportDir)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	loaded := cache.Lookup("target")
	require.NotNil(t, loaded)
	assert.Equal(t, entry.Hash, loaded.Hash)
	assert.Equal(t, entry.Path, loaded.Path)
}

// TestExportReusesUnchangedArtifacts tests that exporting an unchanged session skips rewriting the
// archive, while a changed session rewrites it.
func TestExportReusesUnchangedArtifacts(t *testing.T) {
	t.Parallel()

	session := buildHashSession(t, "6080604052")
	platform := platforms.NewSolcPlatform()

	exportDir := t.TempDir()
	target := session.WorkingDir

	first, err := Export(session, platform, exportDir, target)
	require.NoError(t, err)
	firstInfo, err := os.Stat(first)
	require.NoError(t, err)

	second, err := Export(session, platform, exportDir, target)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The archive was not rewritten.
	secondInfo, err := os.Stat(second)
	require.NoError(t, err)
	assert.Equal(t, firstInfo.ModTime(), secondInfo.ModTime())

	// A changed compilation writes a fresh archive over the old one.
	session.CompilationUnits["unit0"].InitBytecodes["Token"] = "60806041"
	third, err := Export(session, platform, exportDir, target)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}
