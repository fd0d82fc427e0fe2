package types

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CompilationUnit represents one logical build's worth of normalized contract artifacts: every contract's
// ABI, bytecode, source maps, libraries and documentation, plus the source ASTs and one compiler version
// record. Units are created through Session.NewCompilationUnit, populated incrementally by a build
// platform (or by an archive import), and treated as read-only once population finishes.
type CompilationUnit struct {
	// Key uniquely identifies this unit within its owning session.
	Key string

	// ContractNames is the set of bare contract names in this unit, after any `File.sol:` qualification
	// has been stripped.
	ContractNames map[string]struct{}

	// ContractFilenames maps each contract name to the resolved identity of its source file.
	ContractFilenames map[string]*Filename

	// Abis maps each contract name to its application binary interface, stored as a decoded JSON value.
	Abis map[string]any

	// InitBytecodes maps each contract name to the hex string of its deployment bytecode.
	InitBytecodes map[string]string

	// RuntimeBytecodes maps each contract name to the hex string of its deployed bytecode.
	RuntimeBytecodes map[string]string

	// SrcMapsInit maps each contract name to the ordered source map segments of its deployment bytecode.
	// Segments are the raw compiler source map split on `;` and are stored without re-validation.
	SrcMapsInit map[string][]string

	// SrcMapsRuntime maps each contract name to the ordered source map segments of its deployed bytecode.
	SrcMapsRuntime map[string][]string

	// Libraries maps each contract name to its library placeholder patterns and the library names they
	// resolve to, where known. Contracts with no library references map to an empty set.
	Libraries map[string]map[string]string

	// Natspecs maps each contract name to its user and developer documentation.
	Natspecs map[string]Natspec

	// Asts maps each absolute source file path to the raw AST value the compiler emitted for it.
	Asts map[string]any

	// CompilerVersion records the compiler which produced this unit. It is set exactly once, when the
	// unit finishes populating.
	CompilerVersion *CompilerVersion
}

// newCompilationUnit returns a new, empty CompilationUnit with the provided key. Units are created
// through Session.NewCompilationUnit so the owning session registers them.
func newCompilationUnit(key string) *CompilationUnit {
	return &CompilationUnit{
		Key:               key,
		ContractNames:     make(map[string]struct{}),
		ContractFilenames: make(map[string]*Filename),
		Abis:              make(map[string]any),
		InitBytecodes:     make(map[string]string),
		RuntimeBytecodes:  make(map[string]string),
		SrcMapsInit:       make(map[string][]string),
		SrcMapsRuntime:    make(map[string][]string),
		Libraries:         make(map[string]map[string]string),
		Natspecs:          make(map[string]Natspec),
		Asts:              make(map[string]any),
	}
}

// AddContract registers a contract name and its source filename with the unit. The remaining per-contract
// mappings are populated separately by the caller; Validate enforces that all of them end up populated.
func (u *CompilationUnit) AddContract(name string, filename *Filename) {
	u.ContractNames[name] = struct{}{}
	u.ContractFilenames[name] = filename
}

// SetCompilerVersion records the compiler version for this unit. A unit's compiler version is set exactly
// once; attempting to overwrite an existing record returns an error.
func (u *CompilationUnit) SetCompilerVersion(version *CompilerVersion) error {
	if u.CompilerVersion != nil {
		return fmt.Errorf("compiler version for compilation unit '%s' was already set", u.Key)
	}
	u.CompilerVersion = version
	return nil
}

// FilenameOfContract returns the resolved filename of the given contract, or nil if the contract is not
// part of this unit.
func (u *CompilationUnit) FilenameOfContract(name string) *Filename {
	return u.ContractFilenames[name]
}

// SortedContractNames returns the unit's contract names in lexicographic order, for deterministic
// iteration during export and hashing.
func (u *CompilationUnit) SortedContractNames() []string {
	names := maps.Keys(u.ContractNames)
	slices.Sort(names)
	return names
}

// Validate checks the unit invariant: every registered contract name must have an entry in every
// per-contract mapping, and the compiler version must be set. A violation signals a malformed platform
// run and is returned as an error naming the offending contract and mapping.
func (u *CompilationUnit) Validate() error {
	if u.CompilerVersion == nil {
		return fmt.Errorf("compilation unit '%s' has no compiler version set", u.Key)
	}
	for name := range u.ContractNames {
		if _, ok := u.ContractFilenames[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the filename of contract '%s'", u.Key, name)
		}
		if _, ok := u.Abis[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the ABI of contract '%s'", u.Key, name)
		}
		if _, ok := u.InitBytecodes[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the init bytecode of contract '%s'", u.Key, name)
		}
		if _, ok := u.RuntimeBytecodes[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the runtime bytecode of contract '%s'", u.Key, name)
		}
		if _, ok := u.SrcMapsInit[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the init source map of contract '%s'", u.Key, name)
		}
		if _, ok := u.SrcMapsRuntime[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the runtime source map of contract '%s'", u.Key, name)
		}
		if _, ok := u.Libraries[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the library mapping of contract '%s'", u.Key, name)
		}
		if _, ok := u.Natspecs[name]; !ok {
			return fmt.Errorf("compilation unit '%s' is missing the natspec of contract '%s'", u.Key, name)
		}
	}
	return nil
}

// ExtractName strips any `File.sol:` style qualification from a contract identifier, returning the bare
// contract name.
func ExtractName(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ":")
	return parts[len(parts)-1]
}

// ExtractFilename returns the filename portion of a `File.sol:Contract` style identifier. Windows drive
// letters and other embedded colons are preserved; only the final separator splits the contract name off.
func ExtractFilename(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ":")
	return strings.Join(parts[:len(parts)-1], ":")
}
