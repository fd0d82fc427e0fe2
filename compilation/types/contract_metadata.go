package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor"
)

// ContractMetadata is the CBOR-encoded structure the Solidity compiler appends to contract bytecode
// (unless explicitly directed not to), carrying the source hash and, for solc >= 0.5.9, the encoded
// compiler version.
// Reference: https://docs.soliditylang.org/en/latest/metadata.html
type ContractMetadata map[string]any

// metadataHashPrefixes defines the byte patterns which precede CBOR-encoded contract metadata appended to
// the end of bytecode, one per metadata layout solc has emitted over time.
var metadataHashPrefixes = [][]byte{
	{0xa1, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a1 65 "bzzr0" 0x58 0x20 (solc <= 0.5.8)
	{0xa2, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a2 65 "bzzr0" 0x58 0x20 (solc >= 0.5.9)
	{0xa2, 0x65, 98, 122, 122, 114, 49, 0x58, 0x20},  // a2 65 "bzzr1" 0x58 0x20 (solc >= 0.5.11)
	{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73, 0x58, 0x22}, // a2 64 "ipfs" 0x58 0x22 (solc >= 0.6.0)
}

// ExtractContractMetadata extracts the trailing contract metadata from the provided bytecode and returns
// it. If no metadata could be located or decoded, nil is returned.
func ExtractContractMetadata(bytecode []byte) *ContractMetadata {
	// Metadata is appended to the end of the bytecode, so match against the last prefix occurrence.
	for _, metadataHashPrefix := range metadataHashPrefixes {
		metadataOffset := bytes.LastIndex(bytecode, metadataHashPrefix)
		if metadataOffset == -1 {
			continue
		}

		// The CBOR document is followed by a two byte length trailer, so decode just the first document
		// rather than insisting the remainder is empty.
		var metadata ContractMetadata
		if err := cbor.NewDecoder(bytes.NewReader(bytecode[metadataOffset:])).Decode(&metadata); err != nil {
			continue
		}
		return &metadata
	}
	return nil
}

// CompilerVersion returns the compiler version encoded in the metadata's `solc` key as a dotted version
// string, or the empty string if the key is absent or malformed. The key holds three bytes,
// major.minor.patch, and is only present for solc >= 0.5.9.
func (m ContractMetadata) CompilerVersion() string {
	raw, ok := m["solc"]
	if !ok {
		return ""
	}
	versionBytes, ok := raw.([]byte)
	if !ok || len(versionBytes) != 3 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", versionBytes[0], versionBytes[1], versionBytes[2])
}

// ExtractCompilerVersionFromBytecode attempts to recover the compiler version from the contract metadata
// embedded in a hex bytecode string. It returns the empty string when the bytecode carries no decodable
// metadata, which callers treat as "unknown" rather than an error.
func ExtractCompilerVersionFromBytecode(bytecode string) string {
	decoded, err := hex.DecodeString(strings.TrimPrefix(bytecode, "0x"))
	if err != nil {
		// Bytecode with unresolved library placeholders is not valid hex; there is no metadata to read.
		return ""
	}
	metadata := ExtractContractMetadata(decoded)
	if metadata == nil {
		return ""
	}
	return metadata.CompilerVersion()
}
