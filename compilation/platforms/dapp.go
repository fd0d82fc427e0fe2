package platforms

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/utils"
)

// DappPlatform compiles projects built with dapptools. Detection keys off the project Makefile rather
// than a dedicated config file, since dapp projects conventionally drive the tool through make targets.
type DappPlatform struct{}

// NewDappPlatform returns a new dapp platform instance.
func NewDappPlatform() *DappPlatform {
	return &DappPlatform{}
}

// Name returns the display name of the platform.
func (p *DappPlatform) Name() string {
	return "dapp"
}

// ProjectURL returns the URL of the underlying build tool's project.
func (p *DappPlatform) ProjectURL() string {
	return "https://github.com/dapphub/dapptools"
}

// Type returns the canonical integer tag recorded for this platform in exported artifacts.
func (p *DappPlatform) Type() types.PlatformType {
	return types.PlatformTypeDapp
}

// IsSupported indicates whether the target is a dapp project directory. A directory qualifies when its
// Makefile invokes the dapp tool.
func (p *DappPlatform) IsSupported(target string, options *Options) bool {
	if options != nil && options.DappIgnore {
		return false
	}

	makefilePath := filepath.Join(target, "Makefile")
	if !utils.FileExists(makefilePath) {
		return false
	}

	contents, err := os.ReadFile(makefilePath)
	if err != nil {
		return false
	}
	return strings.Contains(string(contents), "dapp ")
}

// IsDependency indicates whether a source path belongs to third-party dependency code. Dapp vendors
// dependencies as git submodules under lib/.
func (p *DappPlatform) IsDependency(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "lib" {
			return true
		}
	}
	return false
}

// GuessedTests returns the platform's best guess at the commands which run the project's unit tests.
func (p *DappPlatform) GuessedTests() []string {
	return []string{"dapp test"}
}

// dappBuildJson describes the out/dapp.sol.json document dapp build produces, a standard JSON style
// compiler output with contracts keyed by source file and qualified contract name.
type dappBuildJson struct {
	Contracts map[string]map[string]dappContractJson `json:"contracts"`
	Sources   map[string]dappSourceJson              `json:"sources"`
	Version   string                                 `json:"version"`
}

// dappContractJson describes one contract entry of dapp's build output.
type dappContractJson struct {
	Abi any `json:"abi"`
	Evm struct {
		Bytecode         dappBytecodeJson `json:"bytecode"`
		DeployedBytecode dappBytecodeJson `json:"deployedBytecode"`
	} `json:"evm"`
	Userdoc  any    `json:"userdoc"`
	Devdoc   any    `json:"devdoc"`
	Metadata string `json:"metadata"`
}

// dappBytecodeJson describes a bytecode entry of dapp's build output.
type dappBytecodeJson struct {
	Object    string `json:"object"`
	SourceMap string `json:"sourceMap"`
}

// dappSourceJson describes one source entry of dapp's build output.
type dappSourceJson struct {
	Ast any `json:"ast"`
}

// dappMetadataJson describes the fields read out of a contract's embedded metadata, which dapp emits as a
// JSON-encoded string per contract.
type dappMetadataJson struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		Optimizer struct {
			Enabled *bool `json:"enabled"`
		} `json:"optimizer"`
	} `json:"settings"`
}

// Compile runs dapp build (unless directed to reuse existing output) and populates the session from the
// out/dapp.sol.json document it produces.
func (p *DappPlatform) Compile(session *types.Session, target string, options *Options) error {
	// Invoke the build tool unless we were asked to only read pre-existing output.
	if !options.IgnoreCompile && !options.DappIgnoreCompile {
		cmd := exec.Command("dapp", "build")
		cmd.Dir = target
		_, _, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd)
		if err != nil {
			return NewInvalidCompilationError(p.Name(), "error while executing dapp build:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
		}
	}

	// Read the build output document.
	buildOutputPath := filepath.Join(target, "out", "dapp.sol.json")
	contents, err := os.ReadFile(buildOutputPath)
	if err != nil {
		return NewInvalidCompilationError(p.Name(), "could not read build output '%s': %v", buildOutputPath, err)
	}
	var buildOutput dappBuildJson
	if err = json.Unmarshal(contents, &buildOutput); err != nil {
		return NewInvalidCompilationError(p.Name(), "could not parse build output '%s': %v", buildOutputPath, err)
	}

	unit := session.NewCompilationUnit(target)
	shortRule := types.StripRootPrefixes("src", "lib")

	// The compiler version is preferably the build output's own version field, falling back to each
	// contract's embedded metadata, then to the metadata trailer of the compiled bytecode itself.
	version := versionPattern.FindString(buildOutput.Version)

	// One optimizer setting is recorded for the whole unit. Individual contracts report theirs through
	// embedded metadata; the unit is considered optimized if any contract was.
	optimized := false
	optimizerKnown := false

	for sourcePath, contracts := range buildOutput.Contracts {
		filename, err := session.ResolveFilename(sourcePath, shortRule)
		if err != nil {
			return err
		}

		for qualifiedName, contract := range contracts {
			contractName := types.ExtractName(qualifiedName)

			unit.AddContract(contractName, filename)
			unit.Abis[contractName] = decodeEmbeddedJson(contract.Abi)
			unit.InitBytecodes[contractName] = contract.Evm.Bytecode.Object
			unit.RuntimeBytecodes[contractName] = contract.Evm.DeployedBytecode.Object
			unit.SrcMapsInit[contractName] = strings.Split(contract.Evm.Bytecode.SourceMap, ";")
			unit.SrcMapsRuntime[contractName] = strings.Split(contract.Evm.DeployedBytecode.SourceMap, ";")
			unit.Natspecs[contractName] = types.NewNatspec(contract.Userdoc, contract.Devdoc)

			if contract.Metadata != "" {
				var metadata dappMetadataJson
				if err := json.Unmarshal([]byte(contract.Metadata), &metadata); err == nil {
					if version == "" {
						version = versionPattern.FindString(metadata.Compiler.Version)
					}
					if metadata.Settings.Optimizer.Enabled != nil {
						optimizerKnown = true
						optimized = optimized || *metadata.Settings.Optimizer.Enabled
					}
				}
			}
			if version == "" {
				version = types.ExtractCompilerVersionFromBytecode(contract.Evm.DeployedBytecode.Object)
			}
		}
	}

	for sourcePath, source := range buildOutput.Sources {
		filename, err := session.ResolveFilename(sourcePath, shortRule)
		if err != nil {
			return err
		}
		unit.Asts[filename.Absolute] = source.Ast
	}

	compilerVersion := &types.CompilerVersion{Compiler: "solc", Version: version}
	if optimizerKnown {
		compilerVersion.Optimized = &optimized
	}
	if err = unit.SetCompilerVersion(compilerVersion); err != nil {
		return err
	}

	unit.DeriveLibraries()

	if len(unit.ContractNames) == 0 {
		return NewInvalidCompilationError(p.Name(), "no contracts found in build output '%s'", buildOutputPath)
	}
	return nil
}
