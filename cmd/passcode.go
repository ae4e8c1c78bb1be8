package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmcintire/aprstx-nerves/aprs"
)

var passcodeCmd = &cobra.Command{
	Use:   "passcode [callsign]",
	Short: "Print the APRS-IS passcode for a callsign",
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
		fmt.Println(aprs.Passcode(call))
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(passcodeCmd)
}
