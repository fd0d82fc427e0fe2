package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crytic/unibuild/cmd/exitcodes"
	"github.com/crytic/unibuild/compilation"
	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// compileCmd represents the command provider for compilation
var compileCmd = &cobra.Command{
	Use:               "compile [target]",
	Short:             "Compiles a target and exports its artifacts",
	Long:              `Compiles a target with the detected build platform and exports its artifacts to the export directory`,
	Args:              cmdValidateCompileArgs,
	ValidArgsFunction: cmdValidCompileArgs,
	RunE:              cmdRunCompile,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the compile command
	err := addCompileFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the compile command", err)
	}

	// Add the compile command and its associated flags to the root command
	rootCmd.AddCommand(compileCmd)
}

// cmdValidCompileArgs will return which flags and sub-commands are valid for dynamic completion for the compile command
func cmdValidCompileArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Gather a list of flags that are available to be used in the current command but have not been used yet
	var unusedFlags []string

	// Examine all the flags, and add any flags that have not been set in the current command line
	// to a list of unused flags
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveDefault
}

// cmdValidateCompileArgs makes sure at most one positional target is provided to the compile command
func cmdValidateCompileArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		err = fmt.Errorf("compile accepts at most one target argument: %s", TargetFlagDescription)
		cmdLogger.Error("Failed to validate args to the compile command", err)
		return err
	}
	return nil
}

// cmdRunCompile executes the CLI compile command and navigates through the following possibilities:
// #1: We will search for either a custom config file (via --config) or the default (unibuild.json).
// If we find it, read it. If we can't read it, throw an error.
// #2: If a custom file was provided (--config was used), and we can't find the file, throw an error.
// #3: If unibuild.json can't be found, use the default options.
func cmdRunCompile(cmd *cobra.Command, args []string) error {
	// The target defaults to the current directory when no positional argument is given.
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	options := platforms.DefaultOptions()

	// Check to see if --config flag was used and store the value of --config flag
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return err
	}

	// If --config was not used, look for `unibuild.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			cmdLogger.Error("Failed to run the compile command", err)
			return err
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	// Check to see if the file exists at configPath
	_, existenceError := os.Stat(configPath)

	// Possibility #1: File was found
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", configPath)
		if err = readProjectConfig(configPath, options); err != nil {
			cmdLogger.Error("Failed to run the compile command", err)
			return err
		}
	}

	// Possibility #2: If the --config flag was used, and we couldn't find the file, we'll throw an error
	if configFlagUsed && existenceError != nil {
		cmdLogger.Error("Failed to run the compile command", existenceError)
		return existenceError
	}

	// Possibility #3: --config flag was not used and unibuild.json was not found, so the defaults hold.

	// Update the options given whatever flags were set using the CLI
	if err = updateOptionsWithCompileFlags(cmd, options); err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return err
	}

	// Compile every target the pattern resolves to. The error has already been logged here, so only
	// its exit code is propagated upward.
	compiled, err := compilation.CompileAll(target, options)
	if err != nil {
		cmdLogger.Error("Failed to compile the target", err)
		return exitcodes.NewErrorWithExitCode(nil, compileFailureExitCode(err))
	}

	printFilenames, err := cmd.Flags().GetBool("print-filenames")
	if err != nil {
		cmdLogger.Error("Failed to run the compile command", err)
		return err
	}

	for _, compiledTarget := range compiled {
		if printFilenames {
			printSessionFilenames(compiledTarget)
		}

		exportPath, err := compilation.Export(compiledTarget.Session, compiledTarget.Platform, options.ExportDir, compiledTarget.Target)
		if err != nil {
			cmdLogger.Error("Failed to export compilation artifacts", err)
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
		}
		cmdLogger.Info("Artifacts for ", compiledTarget.Target, " written to ", exportPath)
	}
	return nil
}

// compileFailureExitCode maps a compilation failure to the process exit code describing it,
// distinguishing a rejected archive import from a build platform failure.
func compileFailureExitCode(err error) int {
	var malformed *platforms.MalformedArtifactError
	if errors.As(err, &malformed) {
		return exitcodes.ExitCodeMalformedArtifact
	}
	return exitcodes.ExitCodeCompilationFailed
}

// printSessionFilenames lists each compiled contract with the four views of its source filename.
func printSessionFilenames(compiledTarget compilation.CompiledTarget) {
	session := compiledTarget.Session
	for _, unitKey := range session.SortedUnitKeys() {
		unit := session.CompilationUnits[unitKey]
		cmdLogger.Info("Compilation unit: ", unitKey)
		for _, contractName := range unit.SortedContractNames() {
			filename := unit.ContractFilenames[contractName]
			cmdLogger.Info("  ", contractName,
				"\n    absolute: ", filename.Absolute,
				"\n    relative: ", filename.Relative,
				"\n    used:     ", filename.Used,
				"\n    short:    ", filename.Short)
		}
	}
}
