package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traitwatch/traitwatch"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the traitwatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), traitwatch.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
