package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/traitwatch/traitwatch/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "traitwatch",
	Short: "Traitwatch is a synchronous trait change notification engine",
	Long:  `Traitwatch lets objects declare observable attributes and notifies subscribers synchronously on every change. This CLI runs demo scenarios, stress checks, and a streaming server around the engine.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}
