package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inbrief/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Process a handful of demo messages",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	demo := []model.Message{
		{
			UserID:         "demo_ana",
			Platform:       model.PlatformWhatsApp,
			ConversationID: "conv_ana_1",
			Text:           "Hey, did the report get done?",
			Timestamp:      now,
		},
		{
			UserID:         "demo_ana",
			Platform:       model.PlatformWhatsApp,
			ConversationID: "conv_ana_1",
			Text:           "Any news on the status? This is important",
			Timestamp:      now.Add(10 * time.Minute),
		},
		{
			UserID:         "demo_ben",
			Platform:       model.PlatformEmail,
			ConversationID: "conv_ben_1",
			Text:           "Please schedule a review meeting next Tuesday at 3 PM",
			Timestamp:      now,
		},
		{
			UserID:         "demo_ben",
			Platform:       model.PlatformEmail,
			ConversationID: "conv_ben_2",
			Text:           "This is urgent, need the invoice ASAP",
			Timestamp:      now.Add(5 * time.Minute),
		},
		{
			UserID:         "demo_carla",
			Platform:       model.PlatformInstagram,
			ConversationID: "conv_carla_1",
			Text:           "Can you send the onboarding deck sometime?",
			Timestamp:      now.Add(15 * time.Minute),
		},
	}

	for _, msg := range demo {
		result, err := app.pipe.Process(msg)
		if err != nil {
			return fmt.Errorf("seed %s: %w", msg.UserID, err)
		}
		schedule := "unscheduled"
		if result.Task.ScheduledFor != nil {
			schedule = result.Task.ScheduledFor.Format(time.RFC3339)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s summary=%s task=%s type=%s priority=%s scheduled=%s\n",
			msg.UserID, result.Summary.ID, result.Task.ID,
			result.Summary.Type, result.Task.Priority, schedule)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d messages\n", len(demo))
	return nil
}
