// Package storage persists the records the pipeline produces. The SQLite
// store is the system of record for messages, summaries, tasks and
// feedback; the interaction log is an append-only JSONL audit trail of
// processed exchanges.
package storage

import (
	"time"

	"inbrief/internal/model"
)

// InteractionEvent is one processed exchange in the audit log.
// Events are appended in processing order and never rewritten.
type InteractionEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id"`
	Platform  model.Platform    `json:"platform"`
	MessageID string            `json:"message_id"`
	SummaryID string            `json:"summary_id"`
	Type      model.SummaryType `json:"type"`
	Urgency   model.Urgency     `json:"urgency"`
}

// Recorder abstracts the audit log. Implementations must be safe for
// concurrent use.
type Recorder interface {
	AppendInteraction(event InteractionEvent) error
	LoadInteractions() ([]InteractionEvent, error)
}

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	UserID string
	Status model.TaskStatus
}
