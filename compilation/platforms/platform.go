package platforms

import (
	"fmt"

	"github.com/crytic/unibuild/compilation/types"
)

// Platform describes the interface all build platform adapters must implement. An adapter knows how to
// detect one build ecosystem, invoke or read its build output, and populate a session's compilation
// units through the canonical data model.
type Platform interface {
	// Name returns the display name of the platform.
	Name() string

	// ProjectURL returns the URL of the underlying build tool's project.
	ProjectURL() string

	// Type returns the canonical integer tag recorded for this platform in exported artifacts.
	Type() types.PlatformType

	// IsSupported indicates whether the target looks like a project this platform can compile. It is a
	// detection heuristic; a false result means "not applicable", never an error.
	IsSupported(target string, options *Options) bool

	// Compile invokes or reads the platform's build output for the target and populates the provided
	// session. Any failure is fatal for the run; no partial session is usable afterwards.
	Compile(session *types.Session, target string, options *Options) error

	// IsDependency indicates whether a source path belongs to third-party dependency code under this
	// platform's layout conventions.
	IsDependency(path string) bool

	// GuessedTests returns the platform's best guess at the commands which run the project's unit tests.
	GuessedTests() []string
}

// Options describes the configuration recognized across build platforms. Options not relevant to the
// selected platform are ignored, and unknown keys in a JSON configuration file are dropped during
// decoding rather than treated as errors.
type Options struct {
	// ExportDir is the destination directory for serialized artifacts.
	ExportDir string `json:"exportDir"`

	// IgnoreCompile skips invoking the external build tool on every platform; only pre-existing build
	// output is read.
	IgnoreCompile bool `json:"ignoreCompile"`

	// DappIgnore skips Dapp project detection entirely.
	DappIgnore bool `json:"dappIgnore"`

	// DappIgnoreCompile skips invoking `dapp build`; pre-existing output is read.
	DappIgnoreCompile bool `json:"dappIgnoreCompile"`

	// WaffleIgnore skips Waffle project detection entirely.
	WaffleIgnore bool `json:"waffleIgnore"`

	// WaffleIgnoreCompile skips invoking waffle; pre-existing output is read.
	WaffleIgnoreCompile bool `json:"waffleIgnoreCompile"`

	// NpxDisable invokes node-based build tools directly rather than through npx.
	NpxDisable bool `json:"npxDisable"`

	// StandardIgnore skips standard export artifact detection entirely.
	StandardIgnore bool `json:"standardIgnore"`

	// Solc is the name or path of the solc binary to invoke.
	Solc string `json:"solc"`

	// SolcArgs is a passthrough argument string appended to solc invocations.
	SolcArgs string `json:"solcArgs"`

	// SolcRemaps describes import remappings passed to solc.
	SolcRemaps []string `json:"solcRemaps"`
}

// DefaultExportDir is the destination directory for serialized artifacts when none is configured.
const DefaultExportDir = "crytic-export"

// DefaultOptions returns an Options populated with default values.
func DefaultOptions() *Options {
	return &Options{
		ExportDir: DefaultExportDir,
		Solc:      "solc",
	}
}

// InvalidCompilationError is the umbrella fatal error for the platform layer: an external tool invocation
// failed, required build output is missing, or an unsupported configuration value was encountered. It is
// reported once and never retried.
type InvalidCompilationError struct {
	// Platform is the display name of the platform which encountered the failure.
	Platform string

	// Message describes the failure with enough context to diagnose it.
	Message string
}

// Error returns the error message string, implementing the `error` interface.
func (e *InvalidCompilationError) Error() string {
	return fmt.Sprintf("%s compilation failed: %s", e.Platform, e.Message)
}

// NewInvalidCompilationError creates an InvalidCompilationError for the named platform with a formatted
// message.
func NewInvalidCompilationError(platform string, format string, args ...any) *InvalidCompilationError {
	return &InvalidCompilationError{
		Platform: platform,
		Message:  fmt.Sprintf(format, args...),
	}
}
