package cmd

import (
	"fmt"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/spf13/cobra"
)

// platformsCmd represents the command which lists the supported build platforms.
var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the supported build platforms",
	Long:  `List every supported build platform along with the project URL of its underlying build tool`,
	Run:   cmdRunPlatforms,
}

func init() {
	// Add the platforms command to the root command
	rootCmd.AddCommand(platformsCmd)
}

// cmdRunPlatforms logs one line per supported build platform.
func cmdRunPlatforms(cmd *cobra.Command, args []string) {
	for _, line := range supportedPlatformLines() {
		cmdLogger.Info(line)
	}
}

// supportedPlatformLines formats one listing line per registered build platform, naming the platform
// and the project URL of its underlying build tool.
func supportedPlatformLines() []string {
	lines := make([]string, 0, len(platforms.All()))
	for _, platform := range platforms.All() {
		lines = append(lines, fmt.Sprintf("- %s: %s", platform.Name(), platform.ProjectURL()))
	}
	return lines
}
