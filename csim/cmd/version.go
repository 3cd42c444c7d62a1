package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the version of csim. It is set at link time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of csim",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "csim %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
