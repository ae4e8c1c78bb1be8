package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath = "aprstx.yaml"
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aprstx",
	Short: "APRS gateway, digipeater and APRS-IS server",
	Long: `aprstx bridges amateur-radio APRS traffic between KISS TNC interfaces
and the APRS-IS Internet tier. It digipeats RF packets, gates traffic in both
directions under loop- and flood-prevention rules, serves downstream APRS-IS
clients and beacons its own position.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Initialize aprstx",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "gw",
		Title: "Gateway Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "gateway configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
