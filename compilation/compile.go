// Package compilation is the top-level entry point of the build pipeline: it detects which build
// platform a target belongs to, drives the platform's adapter to populate a session, and round-trips
// sessions through the archive schema.
package compilation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/logging"
)

// DetectPlatform probes every registered platform's detection heuristic against the target, in priority
// order, and returns the first platform claiming support. Returns an error if no platform supports the
// target.
func DetectPlatform(target string, options *platforms.Options) (platforms.Platform, error) {
	for _, platform := range platforms.All() {
		if platform.IsSupported(target, options) {
			return platform, nil
		}
	}
	return nil, fmt.Errorf("no supported build platform was detected for target '%s'", target)
}

// sessionWorkingDir determines the working directory a session for the given target resolves relative
// paths against: the target itself for directory targets, the process working directory otherwise.
func sessionWorkingDir(target string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	return ""
}

// Compile detects the build platform of the target, compiles it, and returns the populated session along
// with the platform which produced it. Every compilation unit is validated before the session is
// returned; a validation failure discards the session.
func Compile(target string, options *platforms.Options) (*types.Session, platforms.Platform, error) {
	logger := logging.GlobalLogger.NewSubLogger("module", logging.COMPILATION_SERVICE)

	if options == nil {
		options = platforms.DefaultOptions()
	}

	platform, err := DetectPlatform(target, options)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Compiling ", target, " with the ", platform.Name(), " platform")

	session, err := types.NewSession(sessionWorkingDir(target))
	if err != nil {
		return nil, nil, err
	}

	if err = platform.Compile(session, target, options); err != nil {
		return nil, nil, err
	}

	// Enforce the unit invariant before handing the session out.
	for _, unit := range session.CompilationUnits {
		if err = unit.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("Compilation of ", target, " produced ", len(session.CompilationUnits), " compilation unit(s)")
	return session, platform, nil
}

// CompiledTarget pairs one resolved target path with the session and platform its compilation produced.
type CompiledTarget struct {
	// Target is the resolved path the session was compiled from.
	Target string

	// Session holds the compilation results for the target.
	Session *types.Session

	// Platform is the build platform which produced the session.
	Platform platforms.Platform
}

// CompileAll expands a glob pattern into targets and compiles each one. Targets which resolve to no
// supported platform fail the whole operation, as does any individual compilation failure. A target
// without glob metacharacters compiles as-is.
func CompileAll(pattern string, options *platforms.Options) ([]CompiledTarget, error) {
	targets := []string{pattern}
	if strings.ContainsAny(pattern, "*?[") {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("could not expand target pattern '%s': %v", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("target pattern '%s' matched no files", pattern)
		}
		targets = matches
	}

	compiled := make([]CompiledTarget, 0, len(targets))
	for _, target := range targets {
		session, platform, err := Compile(target, options)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, CompiledTarget{
			Target:   target,
			Session:  session,
			Platform: platform,
		})
	}
	return compiled, nil
}

// ImportArchive reconstructs a session from serialized archive data, without touching the filesystem or
// any build tool. The returned platform reflects the archive's recorded platform tag; tags with no
// adapter in this build resolve to the standard platform carrying the original tag. On error no session
// is returned.
func ImportArchive(data []byte) (*types.Session, platforms.Platform, error) {
	session, err := types.NewSession("")
	if err != nil {
		return nil, nil, err
	}

	underlyingType, unitTests, err := platforms.LoadArchiveData(session, data)
	if err != nil {
		return nil, nil, err
	}

	platform := platforms.FromType(underlyingType)
	if standard, ok := platform.(*platforms.StandardPlatform); ok {
		standard.SetUnderlyingType(underlyingType)
		standard.SetRecordedUnitTests(unitTests)
	}

	for _, unit := range session.CompilationUnits {
		if err = unit.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return session, platform, nil
}
