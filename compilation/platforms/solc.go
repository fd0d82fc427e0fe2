package platforms

import (
	"encoding/json"
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/utils"
)

// SolcPlatform compiles a single Solidity source file by invoking solc directly with combined JSON
// output. It is the catch-all platform: any `.sol` file target is accepted, so it probes last.
type SolcPlatform struct{}

// NewSolcPlatform returns a new solc platform instance.
func NewSolcPlatform() *SolcPlatform {
	return &SolcPlatform{}
}

// Name returns the display name of the platform.
func (p *SolcPlatform) Name() string {
	return "solc"
}

// ProjectURL returns the URL of the underlying build tool's project.
func (p *SolcPlatform) ProjectURL() string {
	return "https://github.com/ethereum/solidity"
}

// Type returns the canonical integer tag recorded for this platform in exported artifacts.
func (p *SolcPlatform) Type() types.PlatformType {
	return types.PlatformTypeSolc
}

// IsSupported indicates whether the target is a Solidity source file.
func (p *SolcPlatform) IsSupported(target string, options *Options) bool {
	return strings.HasSuffix(target, ".sol") && utils.FileExists(target)
}

// IsDependency always reports false: a bare solc invocation has no dependency layout conventions.
func (p *SolcPlatform) IsDependency(path string) bool {
	return false
}

// GuessedTests returns no commands: a bare solc invocation carries no test harness.
func (p *SolcPlatform) GuessedTests() []string {
	return []string{}
}

// versionPattern extracts a dotted semantic version from tool output.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GetSolcVersion runs the provided solc binary with --version to obtain its compiler version.
func GetSolcVersion(solc string) (*semver.Version, error) {
	// Run solc --version to obtain our compiler version.
	out, err := exec.Command(solc, "--version").CombinedOutput()
	if err != nil {
		return nil, NewInvalidCompilationError("solc", "error while executing %s --version:\nOUTPUT:\n%s\nERROR: %s", solc, string(out), err.Error())
	}

	// Parse the compiler version out of the output
	versionStr := versionPattern.FindString(string(out))
	if versionStr == "" {
		return nil, errors.New("could not parse solc version using 'solc --version'")
	}

	// Parse our semver string and return it
	return semver.NewVersion(versionStr)
}

// OutputOptions determines what combined JSON output options can be requested from a given solc version.
func (p *SolcPlatform) OutputOptions(v *semver.Version) string {
	// useCompactFormat will add the compact-format output option
	// if version is 0.4.12-0.4.26 or 0.5.0-0.5.17 or 0.6.0-0.6.12 or 0.7.0-0.7.6 or 0.8.0-0.8.9
	useCompactFormat := (v.Major() == 0 && v.Minor() == 4 && v.Patch() >= 12 && v.Patch() <= 26) ||
		(v.Major() == 0 && v.Minor() == 5 && v.Patch() <= 17) ||
		(v.Major() == 0 && v.Minor() == 6 && v.Patch() <= 12) ||
		(v.Major() == 0 && v.Minor() == 7 && v.Patch() <= 6) ||
		(v.Major() == 0 && v.Minor() == 8 && v.Patch() <= 9)

	// if version is 0.3.0-0.3.6 or 0.4.0-0.4.11 no 'hashes' outputOption
	if (v.Major() == 0 && v.Minor() == 4 && v.Patch() <= 11) || (v.Major() == 0 && v.Minor() == 3 && v.Patch() <= 6) {
		return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc"
	} else if useCompactFormat {
		// Both 'hashes' and 'compact-format' are allowed as outputOptions
		return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes,compact-format"
	} else {
		// Can't use 'compact-format' but 'hashes' is allowed as outputOption
		return "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes"
	}
}

// solcCombinedJson describes the combined JSON document solc emits for a compilation.
type solcCombinedJson struct {
	Contracts map[string]solcContractJson `json:"contracts"`
	Sources   map[string]solcSourceJson   `json:"sources"`
	Version   string                      `json:"version"`
}

// solcContractJson describes one contract entry of solc's combined JSON output. Depending on the solc
// version, the abi/userdoc/devdoc values are emitted either as JSON values or as JSON-encoded strings.
type solcContractJson struct {
	Abi           any    `json:"abi"`
	Bin           string `json:"bin"`
	BinRuntime    string `json:"bin-runtime"`
	Srcmap        string `json:"srcmap"`
	SrcmapRuntime string `json:"srcmap-runtime"`
	Userdoc       any    `json:"userdoc"`
	Devdoc        any    `json:"devdoc"`
}

// solcSourceJson describes one source entry of solc's combined JSON output.
type solcSourceJson struct {
	AST any `json:"AST"`
}

// decodeEmbeddedJson unwraps values which older solc versions emit as JSON-encoded strings rather than
// JSON values. Values which are not strings, or do not decode, are returned as-is.
func decodeEmbeddedJson(value any) any {
	if s, ok := value.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
	}
	return value
}

// Compile invokes solc on the target source file and populates the session with one compilation unit.
func (p *SolcPlatform) Compile(session *types.Session, target string, options *Options) error {
	solcBinary := options.Solc
	if solcBinary == "" {
		solcBinary = "solc"
	}

	// Obtain our solc version.
	version, err := GetSolcVersion(solcBinary)
	if err != nil {
		return err
	}

	// Determine which compiler output options we can request from this version.
	outputOptions := p.OutputOptions(version)

	// Create our command. Remaps precede the target, mirroring solc's expected argument order.
	args := make([]string, 0)
	args = append(args, options.SolcRemaps...)
	args = append(args, target, "--combined-json", outputOptions)
	if options.SolcArgs != "" {
		args = append(args, strings.Fields(options.SolcArgs)...)
	}
	cmd := exec.Command(solcBinary, args...)
	cmd.Dir = session.WorkingDir

	cmdStdout, _, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd)
	if err != nil {
		return NewInvalidCompilationError(p.Name(), "error while executing solc:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
	}

	// Our compilation succeeded, load the combined JSON.
	var results solcCombinedJson
	if err = json.Unmarshal(cmdStdout, &results); err != nil {
		return NewInvalidCompilationError(p.Name(), "could not parse combined JSON output: %v", err)
	}

	// Create a compilation unit out of this.
	unit := session.NewCompilationUnit(target)

	// The unit is optimized if the passthrough arguments enabled the optimizer.
	optimized := strings.Contains(options.SolcArgs, "--optimize")
	if err = unit.SetCompilerVersion(types.NewCompilerVersion("solc", version.String(), optimized)); err != nil {
		return err
	}

	// Parse our contracts from the solc output.
	for qualifiedName, contract := range results.Contracts {
		// Split our name which should be of form "filename:contractname"
		contractName := types.ExtractName(qualifiedName)
		sourcePath := types.ExtractFilename(qualifiedName)

		filename, err := session.ResolveFilename(sourcePath, nil)
		if err != nil {
			return err
		}

		unit.AddContract(contractName, filename)
		unit.Abis[contractName] = decodeEmbeddedJson(contract.Abi)
		unit.InitBytecodes[contractName] = contract.Bin
		unit.RuntimeBytecodes[contractName] = contract.BinRuntime
		unit.SrcMapsInit[contractName] = strings.Split(contract.Srcmap, ";")
		unit.SrcMapsRuntime[contractName] = strings.Split(contract.SrcmapRuntime, ";")
		unit.Natspecs[contractName] = types.NewNatspec(decodeEmbeddedJson(contract.Userdoc), decodeEmbeddedJson(contract.Devdoc))
	}

	// Parse our sources from the solc output.
	for sourcePath, source := range results.Sources {
		filename, err := session.ResolveFilename(sourcePath, nil)
		if err != nil {
			return err
		}
		unit.Asts[filename.Absolute] = source.AST
	}

	// Resolve library placeholder patterns now that every contract's bytecode is known.
	unit.DeriveLibraries()

	if len(unit.ContractNames) == 0 {
		return NewInvalidCompilationError(p.Name(), "no contracts found in solc output for '%s'", target)
	}
	return nil
}
