package platforms

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/unibuild/compilation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dappMetadataFixture builds the metadata JSON string dapp embeds per contract.
func dappMetadataFixture(version string, optimized bool) string {
	metadata, _ := json.Marshal(map[string]any{
		"compiler": map[string]any{"version": version},
		"settings": map[string]any{"optimizer": map[string]any{"enabled": optimized}},
	})
	return string(metadata)
}

// writeDappProject lays out a dapp project directory with pre-existing build output, so compilation can
// run without the dapp binary installed.
func writeDappProject(t *testing.T, buildOutput map[string]any) string {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "Makefile"), []byte("all:\n\tdapp build\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "out"), 0755))

	contents, err := json.Marshal(buildOutput)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(target, "out", "dapp.sol.json"), contents, 0644))
	return target
}

// dappBuildOutputFixture builds a dapp.sol.json document with one project contract and one vendored
// library contract.
func dappBuildOutputFixture(version string) map[string]any {
	contract := func(metadata string) map[string]any {
		return map[string]any{
			"abi": []any{},
			"evm": map[string]any{
				"bytecode":         map[string]any{"object": "6080604052", "sourceMap": "0:10:0:-"},
				"deployedBytecode": map[string]any{"object": "6080604053", "sourceMap": "0:10:0:-"},
			},
			"userdoc":  map[string]any{},
			"devdoc":   map[string]any{},
			"metadata": metadata,
		}
	}
	return map[string]any{
		"version": version,
		"contracts": map[string]any{
			"src/Token.sol": map[string]any{
				"src/Token.sol:Token": contract(dappMetadataFixture("0.8.19+commit.7dd6d404", false)),
			},
			"lib/ds-math/src/math.sol": map[string]any{
				"lib/ds-math/src/math.sol:DSMath": contract(dappMetadataFixture("0.8.19+commit.7dd6d404", true)),
			},
		},
		"sources": map[string]any{
			"src/Token.sol":            map[string]any{"ast": map[string]any{"nodeType": "SourceUnit"}},
			"lib/ds-math/src/math.sol": map[string]any{"ast": map[string]any{"nodeType": "SourceUnit"}},
		},
	}
}

// TestDappIsSupported tests dapp project detection through the Makefile heuristic.
func TestDappIsSupported(t *testing.T) {
	t.Parallel()

	platform := NewDappPlatform()

	target := t.TempDir()
	assert.False(t, platform.IsSupported(target, DefaultOptions()))

	require.NoError(t, os.WriteFile(filepath.Join(target, "Makefile"), []byte("all:\n\tforge build\n"), 0644))
	assert.False(t, platform.IsSupported(target, DefaultOptions()))

	require.NoError(t, os.WriteFile(filepath.Join(target, "Makefile"), []byte("all:\n\tdapp build\n"), 0644))
	assert.True(t, platform.IsSupported(target, DefaultOptions()))
	assert.False(t, platform.IsSupported(target, &Options{DappIgnore: true}))
}

// TestDappCompileFromExistingOutput tests populating a session from pre-existing dapp build output.
func TestDappCompileFromExistingOutput(t *testing.T) {
	t.Parallel()

	target := writeDappProject(t, dappBuildOutputFixture("dapp.sol.json built with solc 0.8.19+commit.7dd6d404"))
	session, err := types.NewSession(target)
	require.NoError(t, err)

	platform := NewDappPlatform()
	options := DefaultOptions()
	options.IgnoreCompile = true
	require.NoError(t, platform.Compile(session, target, options))

	require.Contains(t, session.CompilationUnits, target)
	unit := session.CompilationUnits[target]
	require.NoError(t, unit.Validate())

	assert.Contains(t, unit.ContractNames, "Token")
	assert.Contains(t, unit.ContractNames, "DSMath")
	assert.Equal(t, "6080604052", unit.InitBytecodes["Token"])
	assert.Equal(t, []string{"0:10:0:-"}, unit.SrcMapsInit["Token"])
	assert.Len(t, unit.Asts, 2)

	// Version comes from the build output's own version field.
	assert.Equal(t, "solc", unit.CompilerVersion.Compiler)
	assert.Equal(t, "0.8.19", unit.CompilerVersion.Version)

	// One contract was built with the optimizer on, so the unit counts as optimized.
	require.NotNil(t, unit.CompilerVersion.Optimized)
	assert.True(t, *unit.CompilerVersion.Optimized)
}

// TestDappShortRule tests that src/ and lib/ roots are stripped from the short view.
func TestDappShortRule(t *testing.T) {
	t.Parallel()

	target := writeDappProject(t, dappBuildOutputFixture("solc 0.8.19"))
	session, err := types.NewSession(target)
	require.NoError(t, err)

	options := DefaultOptions()
	options.DappIgnoreCompile = true
	require.NoError(t, NewDappPlatform().Compile(session, target, options))

	unit := session.CompilationUnits[target]
	assert.Equal(t, "Token.sol", unit.ContractFilenames["Token"].Short)
	assert.Equal(t, "ds-math/src/math.sol", unit.ContractFilenames["DSMath"].Short)
	assert.Equal(t, "src/Token.sol", unit.ContractFilenames["Token"].Relative)
}

// TestDappCompileVersionFromMetadata tests the version fallback to contract metadata when the build
// output has no usable version field.
func TestDappCompileVersionFromMetadata(t *testing.T) {
	t.Parallel()

	buildOutput := dappBuildOutputFixture("")
	target := writeDappProject(t, buildOutput)
	session, err := types.NewSession(target)
	require.NoError(t, err)

	options := DefaultOptions()
	options.IgnoreCompile = true
	require.NoError(t, NewDappPlatform().Compile(session, target, options))

	assert.Equal(t, "0.8.19", session.CompilationUnits[target].CompilerVersion.Version)
}

// TestDappIsDependency tests the lib/ path convention.
func TestDappIsDependency(t *testing.T) {
	t.Parallel()

	platform := NewDappPlatform()
	assert.True(t, platform.IsDependency("lib/ds-test/src/test.sol"))
	assert.True(t, platform.IsDependency("/project/lib/ds-test/src/test.sol"))
	assert.False(t, platform.IsDependency("src/Token.sol"))
	assert.False(t, platform.IsDependency("library/Token.sol"))
}
