package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traitwatch/traitwatch/internal/cli"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Hammer subscribe/unsubscribe against a concurrent writer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cycles, _ := cmd.Flags().GetInt("cycles")
		logger := newLogger(cmd)

		report := cli.Stress(cycles, logger)
		fmt.Fprintf(cmd.OutOrStdout(),
			"cycles=%d writes=%d notifications=%d\n",
			report.Cycles, report.Writes, report.Notifications)
		if report.WriterErr != nil {
			return fmt.Errorf("writer goroutine failed: %w", report.WriterErr)
		}
		return nil
	},
}

func init() {
	stressCmd.Flags().Int("cycles", 100, "Subscribe/unsubscribe cycles")
	rootCmd.AddCommand(stressCmd)
}
