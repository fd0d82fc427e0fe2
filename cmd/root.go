package cmd

import (
	"github.com/crytic/unibuild/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cmdLogger is the logger instance used for all CLI output.
var cmdLogger = logging.GlobalLogger.NewSubLogger("module", logging.CLI_SERVICE)

var rootCmd = &cobra.Command{
	Use:   "unibuild",
	Short: "A unified smart contract compilation interface",
	Long:  "unibuild compiles smart contract projects across build platforms into one portable artifact format",
}

func Execute() error {
	// Set up a console logger before running any command. Commands log through cmdLogger rather than
	// printing directly.
	logging.GlobalLogger = logging.NewLogger(zerolog.InfoLevel, true)
	cmdLogger = logging.GlobalLogger.NewSubLogger("module", logging.CLI_SERVICE)

	return rootCmd.Execute()
}
