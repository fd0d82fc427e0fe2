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

// writeWaffleProject lays out a waffle project directory with pre-existing build output.
func writeWaffleProject(t *testing.T, config map[string]any) string {
	target := t.TempDir()

	if config != nil {
		contents, err := json.Marshal(config)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(target, "waffle.json"), contents, 0644))
	}

	buildOutput := map[string]any{
		"contracts": map[string]any{
			"contracts/Token.sol:Token": map[string]any{
				"abi": []any{},
				"evm": map[string]any{
					"bytecode":         map[string]any{"object": "6080604052", "sourceMap": "0:10:0:-"},
					"deployedBytecode": map[string]any{"object": "6080604053", "sourceMap": "0:10:0:-"},
				},
			},
			"node_modules/@openzeppelin/Ownable.sol:Ownable": map[string]any{
				"abi": []any{},
				"evm": map[string]any{
					"bytecode":         map[string]any{"object": "6080", "sourceMap": "0:1:0:-"},
					"deployedBytecode": map[string]any{"object": "6080", "sourceMap": "0:1:0:-"},
				},
			},
		},
		"sources": map[string]any{
			"contracts/Token.sol": map[string]any{"AST": map[string]any{"nodeType": "SourceUnit"}},
		},
	}
	contents, err := json.Marshal(buildOutput)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "build"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "build", "Combined-Json.json"), contents, 0644))
	return target
}

// TestWaffleIsSupported tests waffle project detection through the config file and package manifest.
func TestWaffleIsSupported(t *testing.T) {
	t.Parallel()

	platform := NewWafflePlatform()

	target := t.TempDir()
	assert.False(t, platform.IsSupported(target, DefaultOptions()))

	// A waffle config file is conclusive.
	require.NoError(t, os.WriteFile(filepath.Join(target, "waffle.json"), []byte("{}"), 0644))
	assert.True(t, platform.IsSupported(target, DefaultOptions()))
	assert.False(t, platform.IsSupported(target, &Options{WaffleIgnore: true}))

	// A hardhat config disqualifies the project even when waffle is present.
	require.NoError(t, os.WriteFile(filepath.Join(target, "hardhat.config.js"), []byte(""), 0644))
	assert.False(t, platform.IsSupported(target, DefaultOptions()))
}

// TestWaffleIsSupportedThroughManifest tests detection through the package.json dependency listing.
func TestWaffleIsSupportedThroughManifest(t *testing.T) {
	t.Parallel()

	platform := NewWafflePlatform()
	target := t.TempDir()

	manifest := map[string]any{"devDependencies": map[string]any{"ethereum-waffle": "^4.0.0"}}
	contents, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(target, "package.json"), contents, 0644))
	assert.True(t, platform.IsSupported(target, DefaultOptions()))

	manifest = map[string]any{"dependencies": map[string]any{"ethers": "^5.0.0"}}
	contents, err = json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(target, "package.json"), contents, 0644))
	assert.False(t, platform.IsSupported(target, DefaultOptions()))
}

// TestWaffleCompileFromExistingOutput tests populating a session from pre-existing waffle build output,
// with the compiler version taken from the project config.
func TestWaffleCompileFromExistingOutput(t *testing.T) {
	t.Parallel()

	target := writeWaffleProject(t, map[string]any{"solcVersion": "0.7.6"})
	session, err := types.NewSession(target)
	require.NoError(t, err)

	platform := NewWafflePlatform()
	options := DefaultOptions()
	options.WaffleIgnoreCompile = true
	require.NoError(t, platform.Compile(session, target, options))

	require.Contains(t, session.CompilationUnits, target)
	unit := session.CompilationUnits[target]
	require.NoError(t, unit.Validate())

	assert.Contains(t, unit.ContractNames, "Token")
	assert.Contains(t, unit.ContractNames, "Ownable")
	assert.Equal(t, "0.7.6", unit.CompilerVersion.Version)

	// Waffle does not report the optimizer setting, so it stays unknown.
	assert.Nil(t, unit.CompilerVersion.Optimized)

	// The short view strips the contracts/ and node_modules/ roots.
	assert.Equal(t, "Token.sol", unit.ContractFilenames["Token"].Short)
	assert.Equal(t, "@openzeppelin/Ownable.sol", unit.ContractFilenames["Ownable"].Short)
}

// TestWaffleIsDependency tests the node_modules/ path convention.
func TestWaffleIsDependency(t *testing.T) {
	t.Parallel()

	platform := NewWafflePlatform()
	assert.True(t, platform.IsDependency("node_modules/@openzeppelin/Ownable.sol"))
	assert.True(t, platform.IsDependency("/project/node_modules/token.sol"))
	assert.False(t, platform.IsDependency("contracts/Token.sol"))
}
