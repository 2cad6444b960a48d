// Package analytics is the read side of the engine: aggregate snapshots
// over the stored summaries, tasks and feedback, plus daily activity
// derived from the interaction log. Nothing here mutates state.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"inbrief/internal/model"
	"inbrief/internal/storage"
)

// Aggregator is the query surface a report is built from.
type Aggregator interface {
	CountSummariesByType() (map[model.SummaryType]int, error)
	CountSummariesByUrgency() (map[model.Urgency]int, error)
	CountTasksByStatus() (map[model.TaskStatus]int, error)
	CountTasksByPriority() (map[model.Priority]int, error)
	CountFeedbackByRating() (map[model.Rating]int, error)
	AverageConfidence() (float64, error)
}

// Report is one snapshot of the whole store.
type Report struct {
	GeneratedAt        time.Time                 `json:"generated_at"`
	SummariesByType    map[model.SummaryType]int `json:"summaries_by_type"`
	SummariesByUrgency map[model.Urgency]int     `json:"summaries_by_urgency"`
	TasksByStatus      map[model.TaskStatus]int  `json:"tasks_by_status"`
	TasksByPriority    map[model.Priority]int    `json:"tasks_by_priority"`
	AverageConfidence  float64                   `json:"average_confidence"`
	FeedbackUp         int                       `json:"feedback_up"`
	FeedbackDown       int                       `json:"feedback_down"`
}

// BuildReport pulls every aggregate from the store.
func BuildReport(agg Aggregator, now time.Time) (*Report, error) {
	byType, err := agg.CountSummariesByType()
	if err != nil {
		return nil, fmt.Errorf("summaries by type: %w", err)
	}
	byUrgency, err := agg.CountSummariesByUrgency()
	if err != nil {
		return nil, fmt.Errorf("summaries by urgency: %w", err)
	}
	byStatus, err := agg.CountTasksByStatus()
	if err != nil {
		return nil, fmt.Errorf("tasks by status: %w", err)
	}
	byPriority, err := agg.CountTasksByPriority()
	if err != nil {
		return nil, fmt.Errorf("tasks by priority: %w", err)
	}
	byRating, err := agg.CountFeedbackByRating()
	if err != nil {
		return nil, fmt.Errorf("feedback by rating: %w", err)
	}
	avg, err := agg.AverageConfidence()
	if err != nil {
		return nil, fmt.Errorf("average confidence: %w", err)
	}
	return &Report{
		GeneratedAt:        now.UTC(),
		SummariesByType:    byType,
		SummariesByUrgency: byUrgency,
		TasksByStatus:      byStatus,
		TasksByPriority:    byPriority,
		AverageConfidence:  avg,
		FeedbackUp:         byRating[model.RatingUp],
		FeedbackDown:       byRating[model.RatingDown],
	}, nil
}

// TotalSummaries sums the type counts.
func (r *Report) TotalSummaries() int {
	n := 0
	for _, c := range r.SummariesByType {
		n += c
	}
	return n
}

// ApprovalRatio is the share of thumbs-up among all feedback, 0 when no
// feedback exists yet.
func (r *Report) ApprovalRatio() float64 {
	total := r.FeedbackUp + r.FeedbackDown
	if total == 0 {
		return 0
	}
	return float64(r.FeedbackUp) / float64(total)
}

// Render produces the text block the stats command prints. Enumerations
// are walked in their defined order so output is stable.
func (r *Report) Render() string {
	out := fmt.Sprintf("Snapshot at %s\n\nSummaries: %d (avg confidence %.2f)\n",
		r.GeneratedAt.Format(time.RFC3339), r.TotalSummaries(), r.AverageConfidence)
	for _, t := range []model.SummaryType{model.SummaryFollowUp, model.SummaryMeeting, model.SummaryRequest} {
		out += fmt.Sprintf("  %-12s %d\n", t, r.SummariesByType[t])
	}
	out += "Urgency:\n"
	for _, u := range []model.Urgency{model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh} {
		out += fmt.Sprintf("  %-12s %d\n", u, r.SummariesByUrgency[u])
	}
	out += "Tasks:\n"
	for _, s := range []model.TaskStatus{model.StatusPending, model.StatusInProgress, model.StatusCompleted, model.StatusCancelled, model.StatusMissed} {
		out += fmt.Sprintf("  %-12s %d\n", s, r.TasksByStatus[s])
	}
	out += "Priority:\n"
	for _, p := range []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent} {
		out += fmt.Sprintf("  %-12s %d\n", p, r.TasksByPriority[p])
	}
	out += fmt.Sprintf("Feedback: %d up / %d down (approval %.2f)\n",
		r.FeedbackUp, r.FeedbackDown, r.ApprovalRatio())
	return out
}

// ToJSON serializes the report for machine consumers.
func (r *Report) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DailyActivity is the interaction-log view of one day.
type DailyActivity struct {
	Date          string                    `json:"date"`
	TotalMessages int                       `json:"total_messages"`
	UniqueUsers   int                       `json:"unique_users"`
	ByPlatform    map[model.Platform]int    `json:"by_platform"`
	ByType        map[model.SummaryType]int `json:"by_type"`
}

// AnalyzeDailyInteractions filters the interaction log down to targetDate's
// day and counts activity.
func AnalyzeDailyInteractions(events []storage.InteractionEvent, targetDate time.Time) *DailyActivity {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	activity := &DailyActivity{
		Date:       startOfDay.Format("2006-01-02"),
		ByPlatform: make(map[model.Platform]int),
		ByType:     make(map[model.SummaryType]int),
	}
	uniqueUsers := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		activity.TotalMessages++
		uniqueUsers[event.UserID] = true
		activity.ByPlatform[event.Platform]++
		activity.ByType[event.Type]++
	}
	activity.UniqueUsers = len(uniqueUsers)
	return activity
}
