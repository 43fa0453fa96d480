package main

import (
	"fmt"

	"ecg-digitizer/internal/config"

	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config <path>",
	Short: "Write a configuration file with default values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveConfig(config.DefaultConfig(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
