package types

// CompilerVersion records which compiler produced a compilation unit. One instance is attached to each
// CompilationUnit, set exactly once when the unit finishes populating.
type CompilerVersion struct {
	// Compiler describes the name of the compiler used, e.g. "solc".
	Compiler string `json:"compiler"`

	// Version describes the version string reported by or inferred for the compiler.
	Version string `json:"version"`

	// Optimized indicates whether compiler optimization was enabled. It is tri-state: nil indicates the
	// build platform could not determine the setting.
	Optimized *bool `json:"optimized"`
}

// NewCompilerVersion returns a CompilerVersion with a known optimization setting.
func NewCompilerVersion(compiler string, version string, optimized bool) *CompilerVersion {
	return &CompilerVersion{
		Compiler:  compiler,
		Version:   version,
		Optimized: &optimized,
	}
}
