package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"inbrief/internal/ingest"
	"inbrief/internal/model"
	"inbrief/internal/pipeline"
)

var (
	processUser     string
	processPlatform string
	processConv     string
	processText     string
	processPayload  string
	processAt       string
	processJSON     bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify one message and synthesize its task",
	Long: `Process a single inbound message. The message is given either as a raw
JSON payload (--payload, "-" for stdin) or assembled from --user,
--platform, --conv and --text flags.`,
	RunE: runProcess,
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process a file of newline-delimited JSON messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	processCmd.Flags().StringVar(&processUser, "user", "", "user identifier")
	processCmd.Flags().StringVar(&processPlatform, "platform", "whatsapp", "source platform (whatsapp, instagram, email)")
	processCmd.Flags().StringVar(&processConv, "conv", "", "conversation identifier")
	processCmd.Flags().StringVar(&processText, "text", "", "message text")
	processCmd.Flags().StringVar(&processPayload, "payload", "", `raw JSON payload, or "-" to read stdin`)
	processCmd.Flags().StringVar(&processAt, "at", "", "message timestamp (defaults to now)")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the result as JSON")
	batchCmd.Flags().BoolVar(&processJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(batchCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	msg, err := buildMessage()
	if err != nil {
		return err
	}

	result, err := app.pipe.Process(msg)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

func buildMessage() (model.Message, error) {
	if processPayload != "" {
		raw := []byte(processPayload)
		if processPayload == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return model.Message{}, fmt.Errorf("read stdin: %w", err)
			}
			raw = data
		}
		return ingest.NormalizeMessage(raw, time.Now().UTC())
	}

	at := time.Now().UTC()
	if processAt != "" {
		parsed, err := dateparse.ParseAny(processAt)
		if err != nil {
			return model.Message{}, fmt.Errorf("parse --at: %w", err)
		}
		at = parsed.UTC()
	}
	return model.Message{
		UserID:         processUser,
		Platform:       model.Platform(strings.ToLower(processPlatform)),
		ConversationID: processConv,
		Text:           processText,
		Timestamp:      at,
	}, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)

	var msgs []model.Message
	var skipped int
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		msg, err := ingest.NormalizeMessage([]byte(text), time.Now().UTC())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d skipped: %v\n", line, err)
			skipped++
			continue
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan batch file: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := app.pipe.ProcessBatch(ctx, msgs)
	if err != nil {
		return err
	}

	var processed, failed int
	for _, item := range items {
		if item.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "message %d failed: %v\n", item.Index+1, item.Err)
			failed++
			continue
		}
		processed++
		if processJSON {
			if err := printResult(cmd.OutOrStdout(), item.Result); err != nil {
				return err
			}
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, failed %d, skipped %d\n", processed, failed, skipped)
	return nil
}

func printResult(w io.Writer, r pipeline.Result) error {
	if processJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	s := r.Summary
	fmt.Fprintf(w, "Summary %s  type=%s urgency=%s confidence=%.2f\n", s.ID, s.Type, s.Urgency, s.Confidence)
	fmt.Fprintf(w, "  %s\n", s.SummaryText)
	for _, reason := range s.Reasoning {
		fmt.Fprintf(w, "    %s\n", reason)
	}

	t := r.Task
	schedule := "unscheduled"
	if t.ScheduledFor != nil {
		schedule = t.ScheduledFor.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "Task %s  type=%s priority=%s status=%s scheduled=%s score=%.2f\n",
		t.ID, t.Type, t.Priority, t.Status, schedule, t.ContextScore)
	fmt.Fprintf(w, "  %s\n", t.TaskSummary)
	for _, rec := range t.Recommendations {
		mark := " "
		if rec.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s  %s (%s)\n", mark, rec.ID, rec.Action, rec.Priority)
	}
	return nil
}
