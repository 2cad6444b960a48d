package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inbrief/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background scheduler until interrupted",
	Long: `Start the cron scheduler: the overdue-task sweep and the daily digest
fire on their configured specs until the process receives SIGINT or
SIGTERM, then running jobs drain and the process exits.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	s := scheduler.New(app.store, app.cfg.SweepGrace, app.cfg.SweepSpec, app.cfg.DigestSpec, app.metrics, app.log)
	if err := s.Start(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "scheduler running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	app.log.Info().Msg("shutting down")
	s.Stop()
	return nil
}
