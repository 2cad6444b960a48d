package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inbrief/internal/model"
	"inbrief/internal/scheduler"
	"inbrief/internal/storage"
)

var (
	tasksUser   string
	tasksStatus string
	tasksJSON   bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and manage synthesized tasks",
	RunE:  runTasksList,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, optionally filtered by user and status",
	RunE:  runTasksList,
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <task-id> <new-status>",
	Short: "Move a task through its lifecycle",
	Long: `Transition a task to a new status. Legal moves: pending may go to
in_progress, completed, cancelled or missed; in_progress may go to
completed, cancelled or missed. Terminal states never change.`,
	Args: cobra.ExactArgs(2),
	RunE: runTasksStatus,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <task-id> <recommendation-id>",
	Short: "Mark one recommended action on a task as completed",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksDone,
}

var tasksSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark overdue pending tasks as missed",
	RunE:  runTasksSweep,
}

func init() {
	tasksCmd.PersistentFlags().StringVar(&tasksUser, "user", "", "filter by user identifier")
	tasksCmd.PersistentFlags().StringVar(&tasksStatus, "status", "", "filter by task status")
	tasksCmd.PersistentFlags().BoolVar(&tasksJSON, "json", false, "print tasks as JSON")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksStatusCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksSweepCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	filter := storage.TaskFilter{UserID: tasksUser}
	if tasksStatus != "" {
		status := model.TaskStatus(tasksStatus)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", tasksStatus)
		}
		filter.Status = status
	}

	tasks, err := app.store.ListTasks(filter)
	if err != nil {
		return err
	}

	if tasksJSON {
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
		return nil
	}
	for _, t := range tasks {
		schedule := "unscheduled"
		if t.ScheduledFor != nil {
			schedule = t.ScheduledFor.Format(time.RFC3339)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s %-7s %-11s %-20s %s\n",
			t.ID, t.Type, t.Priority, t.Status, schedule, t.TaskSummary)
	}
	return nil
}

func runTasksStatus(cmd *cobra.Command, args []string) error {
	id, next := args[0], model.TaskStatus(args[1])
	if err := app.store.UpdateTaskStatus(id, next); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "task %s is now %s\n", id, next)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	taskID, recID := args[0], args[1]
	if err := app.store.CompleteRecommendation(taskID, recID, time.Now().UTC()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recommendation %s on task %s completed\n", recID, taskID)
	return nil
}

func runTasksSweep(cmd *cobra.Command, args []string) error {
	s := scheduler.New(app.store, app.cfg.SweepGrace, app.cfg.SweepSpec, app.cfg.DigestSpec, app.metrics, app.log)
	swept, err := s.Sweep(time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "swept %d overdue task(s) to missed\n", swept)
	return nil
}
