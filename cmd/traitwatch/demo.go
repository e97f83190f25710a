package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/traitwatch/traitwatch/internal/cli"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scenario file against a fresh observable",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("scenario")
		logger := newLogger(cmd)

		sc, err := cli.Load(path)
		if err != nil {
			return err
		}

		runner := cli.NewRunner(logger, cmd.OutOrStdout())
		runner.RenderMarkdown = term.IsTerminal(int(os.Stdout.Fd()))
		return runner.Run(cmd.Context(), sc)
	},
}

func init() {
	demoCmd.Flags().String("scenario", "scenario.yaml", "Path to the scenario YAML file")
	rootCmd.AddCommand(demoCmd)
}
