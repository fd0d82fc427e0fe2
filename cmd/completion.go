package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:       "completion <shell>",
	Short:     "Generate shell completion code for the specified shell (bash, zsh)",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "zsh"},
	Long: `To load completions:

Bash:

  $ source <(unibuild completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ unibuild completion bash > /etc/bash_completion.d/unibuild
  # macOS:
  $ unibuild completion bash > $(brew --prefix)/etc/bash_completion.d/unibuild

Zsh:

  $ source <(unibuild completion zsh)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		}
		return fmt.Errorf("unsupported shell '%s'", args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
