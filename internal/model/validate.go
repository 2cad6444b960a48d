package model

import "strings"

// ValidateMessage rejects messages the pipeline must not attempt to
// classify: empty text, unknown platform, missing user or timestamp.
func ValidateMessage(m Message) error {
	if strings.TrimSpace(m.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if !m.Platform.Valid() {
		return &ValidationError{Field: "platform", Reason: "unknown value " + string(m.Platform)}
	}
	if strings.TrimSpace(m.Text) == "" {
		return &ValidationError{Field: "message_text", Reason: "must not be empty"}
	}
	if m.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}
	return nil
}

// ValidateFeedback rejects feedback events with a missing reference or an
// unknown rating before anything is appended.
func ValidateFeedback(f FeedbackEvent) error {
	if strings.TrimSpace(f.SummaryID) == "" {
		return &ValidationError{Field: "summary_id", Reason: "must not be empty"}
	}
	if !f.Rating.Valid() {
		return &ValidationError{Field: "rating", Reason: "unknown value " + string(f.Rating)}
	}
	return nil
}
