package platforms

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/utils"
	"github.com/google/uuid"
)

// WafflePlatform compiles projects built with ethereum-waffle. Waffle projects are driven through npx by
// default and describe their build in waffle.json or in the project's package.json dependencies.
type WafflePlatform struct{}

// NewWafflePlatform returns a new waffle platform instance.
func NewWafflePlatform() *WafflePlatform {
	return &WafflePlatform{}
}

// Name returns the display name of the platform.
func (p *WafflePlatform) Name() string {
	return "waffle"
}

// ProjectURL returns the URL of the underlying build tool's project.
func (p *WafflePlatform) ProjectURL() string {
	return "https://github.com/TrueFiEng/Waffle"
}

// Type returns the canonical integer tag recorded for this platform in exported artifacts.
func (p *WafflePlatform) Type() types.PlatformType {
	return types.PlatformTypeWaffle
}

// IsSupported indicates whether the target is a waffle project directory. Hardhat projects also commonly
// depend on ethereum-waffle as a test library, so the presence of a hardhat config disqualifies the
// target before the dependency check runs.
func (p *WafflePlatform) IsSupported(target string, options *Options) bool {
	if options != nil && options.WaffleIgnore {
		return false
	}

	if utils.FileExists(filepath.Join(target, "hardhat.config.js")) ||
		utils.FileExists(filepath.Join(target, "hardhat.config.ts")) {
		return false
	}

	if utils.FileExists(filepath.Join(target, "waffle.json")) {
		return true
	}

	// Fall back to the package manifest: a project depending on ethereum-waffle without its own config
	// file still builds with waffle's defaults.
	contents, err := os.ReadFile(filepath.Join(target, "package.json"))
	if err != nil {
		return false
	}
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err = json.Unmarshal(contents, &manifest); err != nil {
		return false
	}
	if _, ok := manifest.Dependencies["ethereum-waffle"]; ok {
		return true
	}
	_, ok := manifest.DevDependencies["ethereum-waffle"]
	return ok
}

// IsDependency indicates whether a source path belongs to third-party dependency code. Node projects
// vendor dependencies under node_modules/.
func (p *WafflePlatform) IsDependency(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

// GuessedTests returns the platform's best guess at the commands which run the project's unit tests.
func (p *WafflePlatform) GuessedTests() []string {
	return []string{"npx mocha"}
}

// waffleCombinedJson describes the build/Combined-Json.json document waffle produces, with contracts
// keyed by "file:Name" qualified identifiers.
type waffleCombinedJson struct {
	Contracts map[string]waffleContractJson `json:"contracts"`
	Sources   map[string]waffleSourceJson   `json:"sources"`
	Version   string                        `json:"version"`
}

// waffleContractJson describes one contract entry of waffle's combined JSON output.
type waffleContractJson struct {
	Abi any `json:"abi"`
	Evm struct {
		Bytecode         dappBytecodeJson `json:"bytecode"`
		DeployedBytecode dappBytecodeJson `json:"deployedBytecode"`
	} `json:"evm"`
	Userdoc any `json:"userdoc"`
	Devdoc  any `json:"devdoc"`
}

// waffleSourceJson describes one source entry of waffle's combined JSON output.
type waffleSourceJson struct {
	AST any `json:"AST"`
}

// Compile runs waffle (unless directed to reuse existing output) against a temporary config which forces
// the full compiler output selection, then populates the session from build/Combined-Json.json.
func (p *WafflePlatform) Compile(session *types.Session, target string, options *Options) error {
	// Load the project's own config so its compiler choices carry over to our forced output selection.
	config := make(map[string]any)
	configPath := filepath.Join(target, "waffle.json")
	if utils.FileExists(configPath) {
		contents, err := os.ReadFile(configPath)
		if err != nil {
			return NewInvalidCompilationError(p.Name(), "could not read config '%s': %v", configPath, err)
		}
		if err = json.Unmarshal(contents, &config); err != nil {
			return NewInvalidCompilationError(p.Name(), "could not parse config '%s': %v", configPath, err)
		}
	}

	if !options.IgnoreCompile && !options.WaffleIgnoreCompile {
		// Force a combined JSON output carrying everything the data model needs, regardless of what the
		// project config selected.
		config["outputType"] = "all"
		compilerOptions, _ := config["compilerOptions"].(map[string]any)
		if compilerOptions == nil {
			compilerOptions = make(map[string]any)
		}
		compilerOptions["outputSelection"] = map[string]any{
			"*": map[string]any{
				"*": []string{
					"abi",
					"evm.bytecode.object",
					"evm.bytecode.sourceMap",
					"evm.deployedBytecode.object",
					"evm.deployedBytecode.sourceMap",
					"userdoc",
					"devdoc",
					"metadata",
				},
				"": []string{"ast"},
			},
		}
		config["compilerOptions"] = compilerOptions

		// Waffle only accepts configuration through a file, so the forced config is written to a uniquely
		// named temporary file inside the project and removed after the run.
		forcedConfig, err := json.Marshal(config)
		if err != nil {
			return NewInvalidCompilationError(p.Name(), "could not serialize forced config: %v", err)
		}
		forcedConfigPath := filepath.Join(target, uuid.New().String()+".json")
		if err = os.WriteFile(forcedConfigPath, forcedConfig, 0644); err != nil {
			return NewInvalidCompilationError(p.Name(), "could not write forced config '%s': %v", forcedConfigPath, err)
		}
		defer os.Remove(forcedConfigPath)

		var cmd *exec.Cmd
		if options.NpxDisable {
			cmd = exec.Command("waffle", filepath.Base(forcedConfigPath))
		} else {
			cmd = exec.Command("npx", "waffle", filepath.Base(forcedConfigPath))
		}
		cmd.Dir = target
		_, _, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd)
		if err != nil {
			return NewInvalidCompilationError(p.Name(), "error while executing waffle:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
		}
	}

	// Read the combined JSON output document.
	buildOutputPath := filepath.Join(target, "build", "Combined-Json.json")
	contents, err := os.ReadFile(buildOutputPath)
	if err != nil {
		return NewInvalidCompilationError(p.Name(), "could not read build output '%s': %v", buildOutputPath, err)
	}
	var buildOutput waffleCombinedJson
	if err = json.Unmarshal(contents, &buildOutput); err != nil {
		return NewInvalidCompilationError(p.Name(), "could not parse build output '%s': %v", buildOutputPath, err)
	}

	unit := session.NewCompilationUnit(target)
	shortRule := types.StripRootPrefixes("contracts", "node_modules")

	// The compiler version preferably comes from the combined JSON itself, then the project config, then
	// the metadata trailer of the compiled bytecode. The optimizer setting is not reported by waffle, so
	// it stays unknown.
	version := versionPattern.FindString(buildOutput.Version)
	if version == "" {
		if configured, ok := config["solcVersion"].(string); ok {
			version = versionPattern.FindString(configured)
		}
	}

	for qualifiedName, contract := range buildOutput.Contracts {
		contractName := types.ExtractName(qualifiedName)
		sourcePath := types.ExtractFilename(qualifiedName)

		filename, err := session.ResolveFilename(sourcePath, shortRule)
		if err != nil {
			return err
		}

		unit.AddContract(contractName, filename)
		unit.Abis[contractName] = decodeEmbeddedJson(contract.Abi)
		unit.InitBytecodes[contractName] = contract.Evm.Bytecode.Object
		unit.RuntimeBytecodes[contractName] = contract.Evm.DeployedBytecode.Object
		unit.SrcMapsInit[contractName] = strings.Split(contract.Evm.Bytecode.SourceMap, ";")
		unit.SrcMapsRuntime[contractName] = strings.Split(contract.Evm.DeployedBytecode.SourceMap, ";")
		unit.Natspecs[contractName] = types.NewNatspec(contract.Userdoc, contract.Devdoc)

		if version == "" {
			version = types.ExtractCompilerVersionFromBytecode(contract.Evm.DeployedBytecode.Object)
		}
	}

	for sourcePath, source := range buildOutput.Sources {
		filename, err := session.ResolveFilename(sourcePath, shortRule)
		if err != nil {
			return err
		}
		unit.Asts[filename.Absolute] = source.AST
	}

	if err = unit.SetCompilerVersion(&types.CompilerVersion{Compiler: "solc", Version: version}); err != nil {
		return err
	}

	unit.DeriveLibraries()

	if len(unit.ContractNames) == 0 {
		return NewInvalidCompilationError(p.Name(), "no contracts found in build output '%s'", buildOutputPath)
	}
	return nil
}
