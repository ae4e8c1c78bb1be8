package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmcintire/aprstx-nerves/core"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gateway",
	Run: func(cmd *cobra.Command, args []string) {
		core.Bootstrap(configPath, verbose)
	},
	GroupID: "gw",
}

func init() {
	rootCmd.AddCommand(runCmd)
}
