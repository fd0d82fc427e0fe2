package types

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Session is the top-level aggregate owning everything produced by one build platform run or one archive
// import: the compilation units, the global set of resolved filenames, and the set of paths known to
// belong to third-party dependency code. Sessions are populated synchronously and become read-only once
// population finishes; no state is shared between sessions.
type Session struct {
	// ID uniquely identifies this session, used to correlate log output.
	ID string

	// CompilationUnits maps unit keys to the compilation units of this session. Insertion order is not
	// significant.
	CompilationUnits map[string]*CompilationUnit

	// Filenames is the set of all Filename identities resolved within this session, keyed by absolute
	// path. It doubles as the resolver's deduplication cache: resolving the same absolute path twice
	// yields the identical *Filename value.
	Filenames map[string]*Filename

	// Dependencies is the set of path strings, in any of the four Filename views, known to belong to
	// third-party dependency code.
	Dependencies map[string]struct{}

	// PackageName describes the package of the compiled target, if the build platform reports one.
	PackageName string

	// WorkingDir is the directory all relative paths in this session resolve against.
	WorkingDir string
}

// NewSession returns a new, empty Session rooted at the provided working directory. If workingDir is the
// empty string, the process working directory is used. Returns an error if no working directory can be
// determined.
func NewSession(workingDir string) (*Session, error) {
	if workingDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not determine a working directory for the session: %v", err)
		}
		workingDir = cwd
	}

	// Normalize the working directory so relative view computation is stable.
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve session working directory '%s': %v", workingDir, err)
	}

	return &Session{
		ID:               uuid.New().String(),
		CompilationUnits: make(map[string]*CompilationUnit),
		Filenames:        make(map[string]*Filename),
		Dependencies:     make(map[string]struct{}),
		WorkingDir:       absWorkingDir,
	}, nil
}

// NewCompilationUnit creates an empty CompilationUnit with the given key, registers it with the session,
// and returns it. Creating a unit with a key already present replaces the previous unit.
func (s *Session) NewCompilationUnit(key string) *CompilationUnit {
	unit := newCompilationUnit(key)
	s.CompilationUnits[key] = unit
	return unit
}

// ResolveFilename resolves a raw path reported by a build platform into its four-view Filename identity.
// If the same absolute path was already resolved within this session, the previously constructed
// *Filename is returned, preserving pointer identity for set membership operations. Returns a
// *PathResolutionError if the path cannot be resolved.
func (s *Session) ResolveFilename(used string, rule ShortRule) (*Filename, error) {
	if s.WorkingDir == "" {
		return nil, &PathResolutionError{Path: used, WorkingDir: s.WorkingDir, Reason: "the session has no working directory"}
	}
	if used == "" {
		return nil, &PathResolutionError{Path: used, WorkingDir: s.WorkingDir, Reason: "the reported path is empty"}
	}

	// Resolve the absolute view against the working directory.
	absolute := used
	if !filepath.IsAbs(absolute) {
		absolute = filepath.Join(s.WorkingDir, absolute)
	}
	absolute = filepath.Clean(absolute)

	// Reuse the previously constructed identity for this file, if any.
	if existing, ok := s.Filenames[absolute]; ok {
		return existing, nil
	}

	relative, err := filepath.Rel(s.WorkingDir, absolute)
	if err != nil {
		return nil, &PathResolutionError{Path: used, WorkingDir: s.WorkingDir, Reason: err.Error()}
	}
	relative = filepath.ToSlash(relative)

	// The short view defaults to the relative view when the platform's rule strips no known root.
	short := relative
	if rule != nil {
		short = rule(relative)
	}

	filename := &Filename{
		Absolute: absolute,
		Relative: relative,
		Used:     used,
		Short:    short,
	}
	s.Filenames[absolute] = filename
	return filename, nil
}

// RegisterFilename adds an already-constructed Filename (e.g. one read back from an exported artifact) to
// the session's filename set, deduplicating on the absolute view. The registered identity is returned; it
// is the previously known *Filename when the absolute path was seen before.
func (s *Session) RegisterFilename(filename *Filename) *Filename {
	if existing, ok := s.Filenames[filename.Absolute]; ok {
		return existing
	}
	s.Filenames[filename.Absolute] = filename
	return filename
}

// SortedUnitKeys returns the session's compilation unit keys in lexicographic order, for deterministic
// iteration during export and hashing.
func (s *Session) SortedUnitKeys() []string {
	keys := maps.Keys(s.CompilationUnits)
	slices.Sort(keys)
	return keys
}

// AddDependencyPaths records path strings as belonging to third-party dependency code.
func (s *Session) AddDependencyPaths(paths ...string) {
	for _, path := range paths {
		s.Dependencies[path] = struct{}{}
	}
}

// IsDependency indicates whether the provided path, in any Filename view, is known to belong to
// third-party dependency code.
func (s *Session) IsDependency(path string) bool {
	_, ok := s.Dependencies[path]
	return ok
}

// RebuildFilenames recomputes the session's global filename set as the union of every unit's contract
// filenames. The set is derived state; an archive import calls this once all units are populated.
func (s *Session) RebuildFilenames() {
	s.Filenames = make(map[string]*Filename)
	for _, unit := range s.CompilationUnits {
		for _, filename := range unit.ContractFilenames {
			s.RegisterFilename(filename)
		}
	}
}
