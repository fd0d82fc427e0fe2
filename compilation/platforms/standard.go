package platforms

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/utils"
)

// StandardPlatform re-loads archives previously produced by an export, so a compilation performed once
// can be consumed many times without the original build tool installed. It also stands in for archives
// produced by platforms this build does not implement: the archive's recorded platform tag is preserved
// through a re-export even when no adapter for it exists.
type StandardPlatform struct {
	// underlyingType is the platform tag recorded in the loaded archive. Until an archive is loaded it
	// is the standard tag itself.
	underlyingType types.PlatformType

	// unitTests is the unit test command list recorded in the loaded archive.
	unitTests []string
}

// NewStandardPlatform returns a new standard archive platform instance.
func NewStandardPlatform() *StandardPlatform {
	return &StandardPlatform{
		underlyingType: types.PlatformTypeStandard,
	}
}

// Name returns the display name of the platform.
func (p *StandardPlatform) Name() string {
	return "standard"
}

// ProjectURL returns the URL of the project defining the archive schema.
func (p *StandardPlatform) ProjectURL() string {
	return "https://github.com/crytic/crytic-compile"
}

// Type returns the platform tag recorded in the loaded archive, preserving the original platform's
// identity through export round trips.
func (p *StandardPlatform) Type() types.PlatformType {
	return p.underlyingType
}

// SetUnderlyingType records the platform tag an archive was produced by.
func (p *StandardPlatform) SetUnderlyingType(platformType types.PlatformType) {
	p.underlyingType = platformType
}

// SetRecordedUnitTests records the unit test command list read from an archive.
func (p *StandardPlatform) SetRecordedUnitTests(unitTests []string) {
	p.unitTests = unitTests
}

// IsSupported indicates whether the target is an exported archive file.
func (p *StandardPlatform) IsSupported(target string, options *Options) bool {
	if options != nil && options.StandardIgnore {
		return false
	}
	return strings.HasSuffix(target, "_export.json") && utils.FileExists(target)
}

// IsDependency always reports false. Dependency membership for re-loaded archives is carried by the
// session's dependency set, populated from each contract's recorded flag during the load.
func (p *StandardPlatform) IsDependency(path string) bool {
	return false
}

// GuessedTests returns the unit test command list recorded in the loaded archive.
func (p *StandardPlatform) GuessedTests() []string {
	return p.unitTests
}

// Compile loads the archive file at the target path into the session.
func (p *StandardPlatform) Compile(session *types.Session, target string, options *Options) error {
	contents, err := os.ReadFile(target)
	if err != nil {
		return NewInvalidCompilationError(p.Name(), "could not read archive '%s': %v", target, err)
	}

	underlyingType, unitTests, err := LoadArchiveData(session, contents)
	if err != nil {
		return err
	}
	p.underlyingType = underlyingType
	p.unitTests = unitTests
	return nil
}

// MalformedArtifactError indicates an archive being imported is missing a required key. The archive is
// rejected as a whole; no partial session results from a failed import.
type MalformedArtifactError struct {
	// Unit is the key of the compilation unit the missing key was encountered in.
	Unit string

	// Contract is the name of the contract entry the missing key was encountered in, or the empty string
	// for unit-level and archive-level keys.
	Contract string

	// Key is the name of the missing key.
	Key string
}

// Error returns the error message string, implementing the `error` interface.
func (e *MalformedArtifactError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("malformed archive: missing required key '%s'", e.Key)
	}
	if e.Contract == "" {
		return fmt.Sprintf("malformed archive: compilation unit '%s' is missing required key '%s'", e.Unit, e.Key)
	}
	return fmt.Sprintf("malformed archive: contract '%s' of compilation unit '%s' is missing required key '%s'", e.Contract, e.Unit, e.Key)
}

// exportedContractJson describes one contract entry of the archive schema.
type exportedContractJson struct {
	Abi           any               `json:"abi"`
	Bin           string            `json:"bin"`
	BinRuntime    string            `json:"bin-runtime"`
	Srcmap        string            `json:"srcmap"`
	SrcmapRuntime string            `json:"srcmap-runtime"`
	Filenames     *types.Filename   `json:"filenames"`
	Libraries     map[string]string `json:"libraries"`
	IsDependency  bool              `json:"is_dependency"`
	Userdoc       any               `json:"userdoc"`
	Devdoc        any               `json:"devdoc"`
}

// exportedUnitJson describes one compilation unit entry of the archive schema.
type exportedUnitJson struct {
	Compiler  *types.CompilerVersion          `json:"compiler"`
	Asts      map[string]any                  `json:"asts"`
	Contracts map[string]exportedContractJson `json:"contracts"`
}

// exportedArchiveJson describes the top level of the archive schema. Archives predating the
// multiple-compilation-unit schema carry the unit fields at the top level instead of a
// compilation_units mapping; the import path accepts both forms.
type exportedArchiveJson struct {
	CompilationUnits map[string]exportedUnitJson `json:"compilation_units"`
	Package          *string                     `json:"package"`
	WorkingDir       string                      `json:"working_dir"`
	Type             int                         `json:"type"`
	UnitTests        []string                    `json:"unit_tests"`
}

// GenerateArchive serializes a session into the archive schema. The platform which produced the session
// supplies its type tag, dependency predicate and test command guesses.
func GenerateArchive(session *types.Session, platform Platform) ([]byte, error) {
	archive := exportedArchiveJson{
		CompilationUnits: make(map[string]exportedUnitJson),
		WorkingDir:       session.WorkingDir,
		Type:             int(platform.Type()),
		UnitTests:        platform.GuessedTests(),
	}
	if session.PackageName != "" {
		packageName := session.PackageName
		archive.Package = &packageName
	}

	for unitKey, unit := range session.CompilationUnits {
		exportedUnit := exportedUnitJson{
			Compiler:  unit.CompilerVersion,
			Asts:      unit.Asts,
			Contracts: make(map[string]exportedContractJson),
		}

		for _, contractName := range unit.SortedContractNames() {
			filename := unit.ContractFilenames[contractName]
			exportedUnit.Contracts[contractName] = exportedContractJson{
				Abi:           unit.Abis[contractName],
				Bin:           unit.InitBytecodes[contractName],
				BinRuntime:    unit.RuntimeBytecodes[contractName],
				Srcmap:        strings.Join(unit.SrcMapsInit[contractName], ";"),
				SrcmapRuntime: strings.Join(unit.SrcMapsRuntime[contractName], ";"),
				Filenames:     filename,
				Libraries:     unit.Libraries[contractName],
				IsDependency:  session.IsDependency(filename.Absolute) || platform.IsDependency(filename.Absolute),
				Userdoc:       unit.Natspecs[contractName].Userdoc,
				Devdoc:        unit.Natspecs[contractName].Devdoc,
			}
		}
		archive.CompilationUnits[unitKey] = exportedUnit
	}

	return json.MarshalIndent(archive, "", "    ")
}

// ExportArchive serializes a session into the archive schema and writes it under the export directory.
// The archive filename derives from the compiled target: directory targets export as "contracts", file
// targets keep their base name. Returns the path of the written archive.
func ExportArchive(session *types.Session, platform Platform, exportDir string, target string) (string, error) {
	data, err := GenerateArchive(session, platform)
	if err != nil {
		return "", err
	}

	baseName := "contracts"
	if !utils.DirectoryExists(target) {
		baseName = filepath.Base(target)
	}

	file, err := utils.CreateFile(exportDir, baseName+"_export.json")
	if err != nil {
		return "", err
	}
	defer file.Close()
	if _, err = file.Write(data); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// archiveContractJson mirrors exportedContractJson with optional fields made pointers, so a missing
// required key is distinguishable from an empty value during import.
type archiveContractJson struct {
	Abi           json.RawMessage   `json:"abi"`
	Bin           *string           `json:"bin"`
	BinRuntime    *string           `json:"bin-runtime"`
	Srcmap        *string           `json:"srcmap"`
	SrcmapRuntime *string           `json:"srcmap-runtime"`
	Filenames     *types.Filename   `json:"filenames"`
	Libraries     map[string]string `json:"libraries"`
	IsDependency  *bool             `json:"is_dependency"`
	Userdoc       any               `json:"userdoc"`
	Devdoc        any               `json:"devdoc"`
}

// archiveUnitJson mirrors exportedUnitJson for import.
type archiveUnitJson struct {
	Compiler  *types.CompilerVersion         `json:"compiler"`
	Asts      map[string]any                 `json:"asts"`
	Contracts map[string]archiveContractJson `json:"contracts"`
}

// archiveJson mirrors exportedArchiveJson for import. A nil CompilationUnits mapping after decoding
// indicates the legacy single-unit schema.
type archiveJson struct {
	CompilationUnits map[string]archiveUnitJson `json:"compilation_units"`
	Package          *string                    `json:"package"`
	WorkingDir       *string                    `json:"working_dir"`
	Type             *int                       `json:"type"`
	UnitTests        []string                   `json:"unit_tests"`
}

// loadArchiveUnit populates one of the session's compilation units from an archive unit entry. Contracts
// flagged as dependencies propagate all four views of their filename into the session's dependency set.
func loadArchiveUnit(session *types.Session, unitKey string, archiveUnit archiveUnitJson) error {
	if archiveUnit.Compiler == nil {
		return &MalformedArtifactError{Unit: unitKey, Key: "compiler"}
	}
	if archiveUnit.Contracts == nil {
		return &MalformedArtifactError{Unit: unitKey, Key: "contracts"}
	}
	if archiveUnit.Asts == nil {
		return &MalformedArtifactError{Unit: unitKey, Key: "asts"}
	}

	unit := session.NewCompilationUnit(unitKey)
	if err := unit.SetCompilerVersion(archiveUnit.Compiler); err != nil {
		return err
	}
	for astPath, ast := range archiveUnit.Asts {
		unit.Asts[astPath] = ast
	}

	for contractName, contract := range archiveUnit.Contracts {
		switch {
		case contract.Abi == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "abi"}
		case contract.Bin == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "bin"}
		case contract.BinRuntime == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "bin-runtime"}
		case contract.Srcmap == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "srcmap"}
		case contract.SrcmapRuntime == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "srcmap-runtime"}
		case contract.Filenames == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "filenames"}
		case contract.Filenames.Absolute == "":
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "filenames.absolute"}
		case contract.Libraries == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "libraries"}
		case contract.IsDependency == nil:
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "is_dependency"}
		}

		var abi any
		if err := json.Unmarshal(contract.Abi, &abi); err != nil {
			return &MalformedArtifactError{Unit: unitKey, Contract: contractName, Key: "abi"}
		}

		filename := session.RegisterFilename(contract.Filenames)
		unit.AddContract(contractName, filename)
		unit.Abis[contractName] = abi
		unit.InitBytecodes[contractName] = *contract.Bin
		unit.RuntimeBytecodes[contractName] = *contract.BinRuntime
		unit.SrcMapsInit[contractName] = strings.Split(*contract.Srcmap, ";")
		unit.SrcMapsRuntime[contractName] = strings.Split(*contract.SrcmapRuntime, ";")
		unit.Natspecs[contractName] = types.NewNatspec(contract.Userdoc, contract.Devdoc)
		unit.Libraries[contractName] = contract.Libraries

		if *contract.IsDependency {
			session.AddDependencyPaths(filename.Absolute, filename.Relative, filename.Used, filename.Short)
		}
	}
	return nil
}

// LoadArchiveData populates a session from serialized archive data, accepting both the current schema
// and the legacy single-unit schema. Returns the platform tag the archive records and its recorded unit
// test commands. On error the session must be discarded; its contents are unspecified.
func LoadArchiveData(session *types.Session, data []byte) (types.PlatformType, []string, error) {
	var archive archiveJson
	if err := json.Unmarshal(data, &archive); err != nil {
		return types.PlatformTypeStandard, nil, fmt.Errorf("could not parse archive: %v", err)
	}
	if archive.WorkingDir == nil {
		return types.PlatformTypeStandard, nil, &MalformedArtifactError{Key: "working_dir"}
	}
	if archive.Type == nil {
		return types.PlatformTypeStandard, nil, &MalformedArtifactError{Key: "type"}
	}

	// The archive's recorded working directory overrides the session's, so relative views read back from
	// the archive keep meaning what they meant at export time.
	session.WorkingDir = *archive.WorkingDir
	if archive.Package != nil {
		session.PackageName = *archive.Package
	}

	if archive.CompilationUnits == nil {
		// Legacy schema: the unit fields sit at the top level and describe a single unit.
		var legacyUnit archiveUnitJson
		if err := json.Unmarshal(data, &legacyUnit); err != nil {
			return types.PlatformTypeStandard, nil, fmt.Errorf("could not parse archive: %v", err)
		}
		if err := loadArchiveUnit(session, "legacy", legacyUnit); err != nil {
			return types.PlatformTypeStandard, nil, err
		}
	} else {
		for unitKey, archiveUnit := range archive.CompilationUnits {
			if err := loadArchiveUnit(session, unitKey, archiveUnit); err != nil {
				return types.PlatformTypeStandard, nil, err
			}
		}
	}

	// The session's filename set is derived state, recomputed from the loaded units.
	session.RebuildFilenames()

	return types.PlatformType(*archive.Type), archive.UnitTests, nil
}
