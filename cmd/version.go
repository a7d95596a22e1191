package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "looper %s (%s)\n", version.String(), version.GoVersion())
	},
}
