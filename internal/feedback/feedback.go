// Package feedback records thumbs-up/down judgements on summaries. The
// record is append-only: later events never replace earlier ones, so
// disagreement over time stays visible.
package feedback

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"inbrief/internal/metrics"
	"inbrief/internal/model"
)

// Store is the storage surface the recorder needs.
type Store interface {
	SummaryExists(id string) (bool, error)
	AppendFeedback(event model.FeedbackEvent) error
	ListFeedback(summaryID string) ([]model.FeedbackEvent, error)
}

type Recorder struct {
	store   Store
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Store, log zerolog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, log: log, metrics: m}
}

// Record validates and appends one feedback event, returning the stored
// form. The referenced summary must exist.
func (r *Recorder) Record(summaryID string, rating model.Rating, comment string, at time.Time) (model.FeedbackEvent, error) {
	event := model.FeedbackEvent{
		SummaryID: summaryID,
		Rating:    rating,
		Comment:   comment,
		Timestamp: at.UTC(),
	}
	if err := model.ValidateFeedback(event); err != nil {
		return model.FeedbackEvent{}, err
	}
	ok, err := r.store.SummaryExists(summaryID)
	if err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("check summary: %w", err)
	}
	if !ok {
		return model.FeedbackEvent{}, &model.NotFoundError{Kind: "summary", ID: summaryID}
	}
	if err := r.store.AppendFeedback(event); err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("append feedback: %w", err)
	}
	r.metrics.FeedbackRecorded.WithLabelValues(string(rating)).Inc()
	r.log.Info().
		Str("summary_id", summaryID).
		Str("rating", string(rating)).
		Msg("feedback recorded")
	return event, nil
}

// List returns every event recorded for a summary in append order.
func (r *Recorder) List(summaryID string) ([]model.FeedbackEvent, error) {
	events, err := r.store.ListFeedback(summaryID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return events, nil
}
