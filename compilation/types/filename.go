package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Filename represents the four views under which a single source file may be known during a compilation.
// Two Filename values refer to the same logical file if and only if their Absolute views match; the Used
// and Short views may legitimately differ between build platforms for the same file.
type Filename struct {
	// Absolute describes the fully resolved filesystem path of the source file.
	Absolute string `json:"absolute"`

	// Relative describes the path of the source file relative to the session working directory.
	Relative string `json:"relative"`

	// Used describes the exact path string the build platform reported, prior to any normalization.
	Used string `json:"used"`

	// Short describes a platform-specific canonicalized path with a known source root prefix stripped
	// (e.g. `src/` or `contracts/`). It is used for display and cross-platform comparison.
	Short string `json:"short"`
}

// ShortRule derives the short view of a filename from its relative view. Each platform provides its own
// rule, as source root layouts differ per build ecosystem. A nil rule leaves the short view equal to the
// relative view.
type ShortRule func(relative string) string

// StripRootPrefixes returns a ShortRule which strips the first matching root prefix from a relative path.
// Prefixes are tried in the order provided, so a path nested under several known roots canonicalizes
// against the earliest one. If no prefix matches, the relative path is returned unchanged.
func StripRootPrefixes(prefixes ...string) ShortRule {
	return func(relative string) string {
		// Compare in slash form so rules behave identically across operating systems.
		normalized := filepath.ToSlash(relative)
		for _, prefix := range prefixes {
			if strings.HasPrefix(normalized, prefix+"/") {
				return strings.TrimPrefix(normalized, prefix+"/")
			}
		}
		return normalized
	}
}

// PathResolutionError indicates a source path reported by a build platform could not be resolved into a
// four-view Filename identity. This is a fatal error for the platform run which encountered it.
type PathResolutionError struct {
	// Path is the raw path the build platform reported.
	Path string

	// WorkingDir is the working directory the path was resolved against.
	WorkingDir string

	// Reason describes why resolution failed.
	Reason string
}

// Error returns the error message string, implementing the `error` interface.
func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("could not resolve source path '%s' against working directory '%s': %s", e.Path, e.WorkingDir, e.Reason)
}
