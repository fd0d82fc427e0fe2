package types

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// placeholderPattern matches the placeholder substrings the Solidity compiler embeds in bytecode where a
// library address must be linked in before deployment. Older compilers embed `__QualifiedName____...__`
// while solc >= 0.5 embeds `__$<34 hex chars of keccak(qualified name)>$__`.
var placeholderPattern = regexp.MustCompile(`__(\$[0-9a-zA-Z]*\$|\w*)__`)

// ParseBytecodeForPlaceholders returns the unique library placeholder patterns present in the provided
// hex bytecode, in order of first occurrence. An empty result means the bytecode requires no linking.
func ParseBytecodeForPlaceholders(bytecode string) []string {
	matches := placeholderPattern.FindAllString(bytecode, -1)

	seen := make(map[string]struct{})
	placeholders := make([]string, 0)
	for _, match := range matches {
		if _, exists := seen[match]; exists {
			continue
		}
		seen[match] = struct{}{}
		placeholders = append(placeholders, match)
	}
	return placeholders
}

// LibraryPlaceholder computes the placeholder pattern solc >= 0.5 embeds for a library: the first 34 hex
// characters of the keccak256 hash of its fully qualified name, wrapped in `__$...$__`.
func LibraryPlaceholder(qualifiedName string) string {
	hash := crypto.Keccak256Hash([]byte(qualifiedName)).Hex()
	return "__$" + hash[2:36] + "$__"
}

// LegacyLibraryPlaceholder computes the placeholder pattern older compilers embed for a library: the
// qualified name truncated to 36 characters and underscore-padded to a fixed 40-character pattern.
func LegacyLibraryPlaceholder(qualifiedName string) string {
	if len(qualifiedName) > 36 {
		qualifiedName = qualifiedName[:36]
	}
	return "__" + qualifiedName + strings.Repeat("_", 36-len(qualifiedName)) + "__"
}

// DeriveLibraries populates the unit's per-contract library mapping by scanning every contract's init and
// runtime bytecode for placeholder patterns, and resolving each pattern against the placeholders the
// unit's own contracts would produce. Patterns referencing a library outside the unit are retained with
// an empty library name. Contracts without placeholders map to an empty set, never a missing entry.
func (u *CompilationUnit) DeriveLibraries() {
	// Compute the candidate placeholder patterns for every contract in the unit. Any contract may be a
	// library from the perspective of another contract's bytecode.
	candidates := make(map[string]string)
	for name := range u.ContractNames {
		candidates[LegacyLibraryPlaceholder(name)] = name
		candidates[LibraryPlaceholder(name)] = name
		if filename := u.ContractFilenames[name]; filename != nil {
			qualified := filename.Used + ":" + name
			candidates[LegacyLibraryPlaceholder(qualified)] = name
			candidates[LibraryPlaceholder(qualified)] = name
		}
	}

	for name := range u.ContractNames {
		patterns := make(map[string]string)
		for _, bytecode := range []string{u.InitBytecodes[name], u.RuntimeBytecodes[name]} {
			for _, placeholder := range ParseBytecodeForPlaceholders(bytecode) {
				if library, known := candidates[placeholder]; known {
					patterns[placeholder] = library
				} else if _, seen := patterns[placeholder]; !seen {
					patterns[placeholder] = ""
				}
			}
		}
		u.Libraries[name] = patterns
	}
}

// LinkBytecode substitutes deployed library addresses for their placeholder patterns in a hex bytecode
// string. Placeholders whose library has no deployed address are left in place; callers decide whether a
// partially linked result is acceptable.
func LinkBytecode(bytecode string, patterns map[string]string, deployed map[string]common.Address) string {
	for placeholder, library := range patterns {
		address, exists := deployed[library]
		if library == "" || !exists {
			continue
		}
		// A placeholder occupies exactly the 40 hex characters of the address which replaces it.
		addressHex := strings.ToLower(address.Hex()[2:])
		bytecode = strings.ReplaceAll(bytecode, placeholder, addressHex)
	}
	return bytecode
}
