package cmd

import (
	"strings"
	"testing"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSupportedPlatformLines tests that the platform listing covers every registered platform, with
// one line per platform naming it and its project URL.
func TestSupportedPlatformLines(t *testing.T) {
	t.Parallel()

	lines := supportedPlatformLines()
	require.Len(t, lines, len(platforms.All()))

	assert.Contains(t, lines, "- solc: https://github.com/ethereum/solidity")
	assert.Contains(t, lines, "- dapp: https://github.com/dapphub/dapptools")
	assert.Contains(t, lines, "- waffle: https://github.com/TrueFiEng/Waffle")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "- "))
	}
}
