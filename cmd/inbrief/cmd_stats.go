package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"inbrief/internal/analytics"
)

var (
	statsJSON  bool
	statsDaily string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report on stored summaries, tasks and feedback",
	Long: `Print aggregate counts over everything processed so far, or with
--daily, a per-day activity breakdown sourced from the interaction log.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the report as JSON")
	statsCmd.Flags().StringVar(&statsDaily, "daily", "", "report activity for one day (e.g. 2025-09-02)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsDaily != "" {
		return runDailyStats(cmd)
	}

	report, err := analytics.BuildReport(app.store, time.Now().UTC())
	if err != nil {
		return err
	}
	if statsJSON {
		out, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Render())
	return nil
}

func runDailyStats(cmd *cobra.Command) error {
	day, err := dateparse.ParseAny(statsDaily)
	if err != nil {
		return fmt.Errorf("parse --daily: %w", err)
	}

	events, err := app.recorder.LoadInteractions()
	if err != nil {
		return err
	}
	activity := analytics.AnalyzeDailyInteractions(events, day.UTC())

	if statsJSON {
		data, err := json.MarshalIndent(activity, "", "  ")
		if err != nil {
			return fmt.Errorf("encode activity: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Activity for %s\n", activity.Date)
	fmt.Fprintf(cmd.OutOrStdout(), "  messages: %d\n", activity.TotalMessages)
	fmt.Fprintf(cmd.OutOrStdout(), "  users:    %d\n", activity.UniqueUsers)
	for platform, n := range activity.ByPlatform {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-9s %d\n", platform, n)
	}
	for summaryType, n := range activity.ByType {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-9s %d\n", summaryType, n)
	}
	return nil
}
