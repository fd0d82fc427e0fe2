package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReadProjectConfig tests that config file values overlay the defaults, leaving absent keys
// untouched and ignoring unrecognized keys.
func TestReadProjectConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultProjectConfigFilename)
	contents := `{"exportDir": "artifacts", "solc": "solc-0.8.19", "futureOption": true}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	options := platforms.DefaultOptions()
	require.NoError(t, readProjectConfig(path, options))

	assert.Equal(t, "artifacts", options.ExportDir)
	assert.Equal(t, "solc-0.8.19", options.Solc)
	assert.False(t, options.IgnoreCompile)
}

// TestReadProjectConfigErrors tests rejection of missing and unparsable config files.
func TestReadProjectConfigErrors(t *testing.T) {
	t.Parallel()

	options := platforms.DefaultOptions()
	assert.Error(t, readProjectConfig(filepath.Join(t.TempDir(), "missing.json"), options))

	path := filepath.Join(t.TempDir(), DefaultProjectConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	assert.Error(t, readProjectConfig(path, options))
}
