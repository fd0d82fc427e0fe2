package cmd

import (
	"fmt"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/spf13/cobra"
)

// addCompileFlags adds the various flags for the compile command
func addCompileFlags() error {
	// Prevent alphabetical sorting of usage message
	compileCmd.Flags().SortFlags = false

	// Config file
	compileCmd.Flags().String("config", "", "path to config file")

	// Export directory
	compileCmd.Flags().String("export-dir", "",
		fmt.Sprintf("directory to write exported artifacts to (unless a config file is provided, default is %q)", platforms.DefaultExportDir))

	// Build tool invocation controls
	compileCmd.Flags().Bool("ignore-compile", false,
		"do not invoke any external build tool and only read pre-existing build output")
	compileCmd.Flags().Bool("dapp-ignore", false,
		"do not detect dapp projects")
	compileCmd.Flags().Bool("dapp-ignore-compile", false,
		"do not invoke dapp build and only read pre-existing build output")
	compileCmd.Flags().Bool("waffle-ignore", false,
		"do not detect waffle projects")
	compileCmd.Flags().Bool("waffle-ignore-compile", false,
		"do not invoke waffle and only read pre-existing build output")
	compileCmd.Flags().Bool("npx-disable", false,
		"invoke node-based build tools directly instead of through npx")
	compileCmd.Flags().Bool("standard-ignore", false,
		"do not detect exported artifact files")

	// Solc invocation controls
	compileCmd.Flags().String("solc", "",
		"name or path of the solc binary to invoke (unless a config file is provided, default is \"solc\")")
	compileCmd.Flags().String("solc-args", "",
		"additional arguments to pass through to solc")
	compileCmd.Flags().StringSlice("solc-remaps", []string{},
		"import remappings to pass to solc")

	// Output controls
	compileCmd.Flags().Bool("print-filenames", false,
		"print every compiled contract with the resolved views of its source filename")
	return nil
}

// updateOptionsWithCompileFlags will update the given options with any CLI arguments that were provided
// to the compile command. Flags that were not used leave the corresponding option untouched, so values
// read from a config file are preserved.
func updateOptionsWithCompileFlags(cmd *cobra.Command, options *platforms.Options) error {
	var err error

	// Update export directory
	if cmd.Flags().Changed("export-dir") {
		options.ExportDir, err = cmd.Flags().GetString("export-dir")
		if err != nil {
			return err
		}
	}

	// Update build tool invocation controls
	if cmd.Flags().Changed("ignore-compile") {
		options.IgnoreCompile, err = cmd.Flags().GetBool("ignore-compile")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("dapp-ignore") {
		options.DappIgnore, err = cmd.Flags().GetBool("dapp-ignore")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("dapp-ignore-compile") {
		options.DappIgnoreCompile, err = cmd.Flags().GetBool("dapp-ignore-compile")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("waffle-ignore") {
		options.WaffleIgnore, err = cmd.Flags().GetBool("waffle-ignore")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("waffle-ignore-compile") {
		options.WaffleIgnoreCompile, err = cmd.Flags().GetBool("waffle-ignore-compile")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("npx-disable") {
		options.NpxDisable, err = cmd.Flags().GetBool("npx-disable")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("standard-ignore") {
		options.StandardIgnore, err = cmd.Flags().GetBool("standard-ignore")
		if err != nil {
			return err
		}
	}

	// Update solc invocation controls
	if cmd.Flags().Changed("solc") {
		options.Solc, err = cmd.Flags().GetString("solc")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("solc-args") {
		options.SolcArgs, err = cmd.Flags().GetString("solc-args")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("solc-remaps") {
		options.SolcRemaps, err = cmd.Flags().GetStringSlice("solc-remaps")
		if err != nil {
			return err
		}
	}
	return nil
}
