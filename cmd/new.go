package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

var newCmd = &cobra.Command{
	Use:   "new [callsign]",
	Short: "Write a starter configuration for a station",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			_ = cmd.Usage()
			return
		}
		call := aprs.NormalizeCallsign(args[0])
		if !aprs.ValidCallsign(call) {
			fmt.Printf("Invalid callsign: %s\n", args[0])
			os.Exit(-1)
		}

		cfg := state.DefaultConfig()
		cfg.Station.Callsign = call
		cfg.AprsIs.Passcode = aprs.Passcode(call)

		out, err := yaml.Marshal(cfg)
		if err != nil {
			panic(err)
		}
		outPath := cmd.Flag("output").Value.String()
		if err := os.WriteFile(outPath, out, 0600); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote configuration for %s to %s\n", call, outPath)
	},
	GroupID: "init",
}

func init() {
	newCmd.Flags().StringP("output", "o", "aprstx.yaml", "output path")
	rootCmd.AddCommand(newCmd)
}
