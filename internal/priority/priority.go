// Package priority derives the task tier from urgency and escalation
// signals, emits the ordered recommendation list and scores how well the
// schedule/priority decision is supported.
package priority

import (
	"strings"

	"inbrief/internal/classify"
	"inbrief/internal/ident"
	"inbrief/internal/model"
	"inbrief/internal/temporal"
)

// Engine holds the escalation vocabulary and the ID collaborator for
// recommendation actions.
type Engine struct {
	escalation []string
	ids        ident.Generator
}

func NewEngine(escalationKeywords []string, ids ident.Generator) *Engine {
	normalized := make([]string, 0, len(escalationKeywords))
	for _, kw := range escalationKeywords {
		if n := classify.Normalize(kw); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &Engine{escalation: normalized, ids: ids}
}

func basePriority(u model.Urgency) model.Priority {
	switch u {
	case model.UrgencyHigh:
		return model.PriorityHigh
	case model.UrgencyMedium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Derive maps urgency to its base tier and promotes one tier when an
// escalation keyword occurs in the message text. Promotion caps at urgent;
// keywords never demote.
func (e *Engine) Derive(text string, urgency model.Urgency) (model.Priority, bool) {
	p := basePriority(urgency)
	norm := " " + classify.Normalize(text) + " "
	for _, kw := range e.escalation {
		if strings.Contains(norm, " "+kw+" ") {
			return p.Promote(), true
		}
	}
	return p, false
}

type actionTemplate struct {
	action      string
	description string
	priority    model.Priority
}

// actionsByType is the fixed recommendation mapping, already in emission
// order within each type.
var actionsByType = map[model.TaskType][]actionTemplate{
	model.TaskMeeting: {
		{"calendar_block", "Block time on the calendar", model.PriorityHigh},
		{"prepare_agenda", "Draft an agenda for the discussion", model.PriorityMedium},
		{"send_confirmation", "Confirm attendance with participants", model.PriorityMedium},
	},
	model.TaskReminder: {
		{"set_reminder", "Create a reminder alert", model.PriorityHigh},
		{"add_to_todo", "Add the item to the to-do list", model.PriorityMedium},
	},
	model.TaskFollowUp: {
		{"gather_info", "Collect the latest status before replying", model.PriorityHigh},
		{"schedule_followup", "Queue a follow-up touchpoint", model.PriorityMedium},
	},
}

// Recommend builds the ordered recommendation list for a task. High and
// urgent tasks get an immediate-attention action first; a concrete
// schedule appends a calendar reminder. Every recommendation starts
// uncompleted.
func (e *Engine) Recommend(taskType model.TaskType, p model.Priority, scheduled bool) []model.Recommendation {
	var templates []actionTemplate
	if p.Rank() >= model.PriorityHigh.Rank() {
		templates = append(templates, actionTemplate{
			"immediate_attention", "Needs attention now: escalated priority", model.PriorityUrgent,
		})
	}
	templates = append(templates, actionsByType[taskType]...)
	if scheduled {
		templates = append(templates, actionTemplate{
			"calendar_reminder", "Set a reminder ahead of the scheduled time", model.PriorityMedium,
		})
	}

	out := make([]model.Recommendation, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, model.Recommendation{
			ID:          e.ids.ActionID(),
			Action:      tpl.action,
			Description: tpl.description,
			Priority:    tpl.priority,
			Completed:   false,
		})
	}
	return out
}

// ContextScore combines classification confidence with how the schedule
// was concluded: a real expression strengthens the score, a defaulted
// schedule barely moves it, and an unparseable expression weakens it.
// Consulted context adds a small amount. Always within [0,1].
func ContextScore(confidence float64, res temporal.Resolution, contextUsed bool) float64 {
	score := confidence
	switch res.Method {
	case temporal.MethodExplicit, temporal.MethodRelative, temporal.MethodWeekday:
		score += 0.2
	case temporal.MethodDefaulted:
		score += 0.05
	}
	if res.Warning != nil {
		score -= 0.1
	}
	if contextUsed {
		score += 0.05
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
