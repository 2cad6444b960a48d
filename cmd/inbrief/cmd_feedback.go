package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inbrief/internal/model"
)

var feedbackComment string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <summary-id> <up|down>",
	Short: "Record a rating on a summary",
	Long: `Record a thumbs-up or thumbs-down on a classification. Feedback is
append-only: it never changes the summary it references, and repeated
ratings on the same summary all remain on record.`,
	Args: cobra.ExactArgs(2),
	RunE: runFeedback,
}

var feedbackListCmd = &cobra.Command{
	Use:   "list <summary-id>",
	Short: "List recorded feedback for a summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedbackList,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "optional free-form comment")
	feedbackCmd.AddCommand(feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	event, err := app.feedback.Record(args[0], model.Rating(args[1]), feedbackComment, time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recorded %s on %s\n", event.Rating, event.SummaryID)
	return nil
}

func runFeedbackList(cmd *cobra.Command, args []string) error {
	events, err := app.feedback.List(args[0])
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no feedback")
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-4s", e.Timestamp.Format(time.RFC3339), e.Rating)
		if e.Comment != "" {
			line += "  " + e.Comment
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
