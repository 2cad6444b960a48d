// Package model defines the records exchanged between the classification
// pipeline and its collaborators: inbound messages, summaries, tasks and
// feedback events, together with their enumerations and validation.
package model

import "time"

// Platform is the channel a message arrived on.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformEmail     Platform = "email"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformWhatsApp, PlatformInstagram, PlatformEmail:
		return true
	}
	return false
}

// Urgency is the ordered time-sensitivity of a summary: low < medium < high.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var urgencyRank = map[Urgency]int{UrgencyLow: 0, UrgencyMedium: 1, UrgencyHigh: 2}

func (u Urgency) Valid() bool { _, ok := urgencyRank[u]; return ok }

// Rank returns the position of u in the urgency order, -1 for unknown values.
func (u Urgency) Rank() int {
	if r, ok := urgencyRank[u]; ok {
		return r
	}
	return -1
}

// Promote returns the next urgency level up, capped at high.
func (u Urgency) Promote() Urgency {
	switch u {
	case UrgencyLow:
		return UrgencyMedium
	case UrgencyMedium:
		return UrgencyHigh
	default:
		return u
	}
}

// SummaryType is the classified kind of an inbound message.
type SummaryType string

const (
	SummaryFollowUp SummaryType = "follow-up"
	SummaryMeeting  SummaryType = "meeting"
	SummaryRequest  SummaryType = "request"
)

func (t SummaryType) Valid() bool {
	switch t {
	case SummaryFollowUp, SummaryMeeting, SummaryRequest:
		return true
	}
	return false
}

// TaskType mirrors the summary vocabulary on the task side:
// meeting→meeting, request→reminder, follow-up→follow-up.
type TaskType string

const (
	TaskMeeting  TaskType = "meeting"
	TaskReminder TaskType = "reminder"
	TaskFollowUp TaskType = "follow-up"
)

// TaskTypeFor maps a summary type to the task type synthesized from it.
func TaskTypeFor(t SummaryType) TaskType {
	switch t {
	case SummaryMeeting:
		return TaskMeeting
	case SummaryRequest:
		return TaskReminder
	default:
		return TaskFollowUp
	}
}

// Priority is the ordered importance tier of a task:
// low < medium < high < urgent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

func (p Priority) Valid() bool { _, ok := priorityRank[p]; return ok }

// Rank returns the position of p in the priority order, -1 for unknown values.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

// Promote returns the next priority tier up, capped at urgent.
func (p Priority) Promote() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityUrgent
	default:
		return p
	}
}

// TaskStatus is the lifecycle state of a task. Tasks are created pending;
// every transition afterwards is triggered by the surrounding application.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
	StatusMissed     TaskStatus = "missed"
)

var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	StatusPending: {
		StatusInProgress: true,
		StatusCompleted:  true,
		StatusCancelled:  true,
		StatusMissed:     true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusMissed:    true,
	},
	// completed, cancelled, missed are terminal
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal step of the
// task state machine.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	return taskTransitions[s][next]
}

// Rating is a thumbs-up/down judgement on a summary.
type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

func (r Rating) Valid() bool { return r == RatingUp || r == RatingDown }

// Message is a single inbound message. Immutable once created.
type Message struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Platform       Platform  `json:"platform"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Text           string    `json:"message_text"`
	Timestamp      time.Time `json:"timestamp"`
}

// Summary is the classification result for exactly one message.
// Immutable once created.
type Summary struct {
	ID          string      `json:"summary_id"`
	MessageID   string      `json:"message_id"`
	SummaryText string      `json:"summary_text"`
	Type        SummaryType `json:"type"`
	Intent      string      `json:"intent"`
	Urgency     Urgency     `json:"urgency"`
	Confidence  float64     `json:"confidence"`
	Reasoning   []string    `json:"reasoning"`
	ContextUsed bool        `json:"context_used"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Recommendation is one follow-up action attached to a task. Completion
// fields mutate over the task's lifetime; everything else is fixed.
type Recommendation struct {
	ID          string     `json:"id"`
	Action      string     `json:"action"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Task is synthesized once per summary. ScheduledFor stays nil when no
// temporal expression was found and the task type carries no default.
type Task struct {
	ID              string           `json:"task_id"`
	SummaryID       string           `json:"summary_id"`
	UserID          string           `json:"user_id"`
	TaskSummary     string           `json:"task_summary"`
	Type            TaskType         `json:"task_type"`
	ScheduledFor    *time.Time       `json:"scheduled_for,omitempty"`
	Status          TaskStatus       `json:"status"`
	Priority        Priority         `json:"priority"`
	ContextScore    float64          `json:"context_score"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}

// FeedbackEvent is an append-only rating referencing a summary. Events are
// never mutated or deleted; several may reference the same summary.
type FeedbackEvent struct {
	SummaryID string    `json:"summary_id"`
	Rating    Rating    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
