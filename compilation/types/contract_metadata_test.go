package types

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMetadataTrailer constructs the metadata trailer solc >= 0.6.0 appends to bytecode: a CBOR map
// holding an ipfs hash and the three byte compiler version, followed by the two byte length trailer.
func buildMetadataTrailer(major byte, minor byte, patch byte) []byte {
	trailer := []byte{0xa2}
	// "ipfs": 34 byte multihash
	trailer = append(trailer, 0x64)
	trailer = append(trailer, []byte("ipfs")...)
	trailer = append(trailer, 0x58, 0x22)
	trailer = append(trailer, make([]byte, 34)...)
	// "solc": 3 byte version
	trailer = append(trailer, 0x64)
	trailer = append(trailer, []byte("solc")...)
	trailer = append(trailer, 0x43, major, minor, patch)
	// two byte big-endian length of the CBOR document
	length := len(trailer)
	return append(trailer, byte(length>>8), byte(length))
}

// TestExtractContractMetadata tests locating and decoding the metadata trailer of compiled bytecode.
func TestExtractContractMetadata(t *testing.T) {
	t.Parallel()

	bytecode := append([]byte{0x60, 0x80, 0x60, 0x40}, buildMetadataTrailer(0, 8, 19)...)
	metadata := ExtractContractMetadata(bytecode)
	require.NotNil(t, metadata)
	assert.Equal(t, "0.8.19", metadata.CompilerVersion())
}

// TestExtractContractMetadataAbsent tests that bytecode without a metadata trailer yields nil.
func TestExtractContractMetadataAbsent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractContractMetadata([]byte{0x60, 0x80, 0x60, 0x40}))
	assert.Nil(t, ExtractContractMetadata(nil))
}

// TestExtractCompilerVersionFromBytecode tests version recovery from a hex bytecode string.
func TestExtractCompilerVersionFromBytecode(t *testing.T) {
	t.Parallel()

	bytecode := append([]byte{0x60, 0x80}, buildMetadataTrailer(0, 8, 4)...)
	assert.Equal(t, "0.8.4", ExtractCompilerVersionFromBytecode(hex.EncodeToString(bytecode)))
	assert.Equal(t, "0.8.4", ExtractCompilerVersionFromBytecode("0x"+hex.EncodeToString(bytecode)))
}

// TestExtractCompilerVersionFromMalformedBytecode tests that unlinkable or undecodable bytecode yields
// the empty version rather than an error.
func TestExtractCompilerVersionFromMalformedBytecode(t *testing.T) {
	t.Parallel()

	// Placeholders make the hex undecodable.
	assert.Equal(t, "", ExtractCompilerVersionFromBytecode("6080"+LegacyLibraryPlaceholder("SafeMath")))
	assert.Equal(t, "", ExtractCompilerVersionFromBytecode("60806040"))
	assert.Equal(t, "", ExtractCompilerVersionFromBytecode(""))
}

// TestCompilerVersionMissingKey tests that metadata lacking the solc key reports no version.
func TestCompilerVersionMissingKey(t *testing.T) {
	t.Parallel()

	metadata := ContractMetadata{"ipfs": make([]byte, 34)}
	assert.Equal(t, "", metadata.CompilerVersion())

	metadata = ContractMetadata{"solc": []byte{0, 8}}
	assert.Equal(t, "", metadata.CompilerVersion())
}
