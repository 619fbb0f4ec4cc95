package cmd

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the workforce version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("workforce %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
