package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/traitwatch/traitwatch"
	"github.com/traitwatch/traitwatch/internal/cli"
	"github.com/traitwatch/traitwatch/pkg/adapters/httpstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream a scenario's notifications over HTTP (SSE)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("scenario")
		addr, _ := cmd.Flags().GetString("addr")
		interval, _ := cmd.Flags().GetDuration("interval")
		logger := newLogger(cmd)

		sc, err := cli.Load(path)
		if err != nil {
			return err
		}

		model := &traitwatch.Holder{}
		defer model.Close()
		model.SetMany(sc.Traits)

		broadcaster := httpstream.NewBroadcaster(logger)
		names := make([]string, 0, len(sc.Watch))
		for _, w := range sc.Watch {
			names = append(names, w.Trait)
		}
		if err := broadcaster.Attach(model, names...); err != nil {
			return err
		}
		defer broadcaster.Detach()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Replay the script on a timer so connected clients keep
		// receiving events.
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					playScript(model, sc)
				}
			}
		}()

		server := &http.Server{Addr: addr, Handler: httpstream.NewHandler(broadcaster)}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		logger.Info("serving", "addr", addr, "scenario", path)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func playScript(model *traitwatch.Holder, sc *cli.Scenario) {
	for _, step := range sc.Script {
		for _, name := range sortedKeys(step.Set) {
			model.Set(name, step.Set[name])
		}
		for _, name := range sortedKeys(step.Fire) {
			model.Fire(name, step.Fire[name])
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	serveCmd.Flags().String("scenario", "scenario.yaml", "Path to the scenario YAML file")
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Duration("interval", 2*time.Second, "Script replay interval")
	rootCmd.AddCommand(serveCmd)
}
