package storage

import (
	"database/sql"
	"fmt"

	"inbrief/internal/model"
)

// Aggregate queries backing the stats report. Each returns a snapshot of
// the current database state.

func (s *SQLite) CountSummariesByType() (map[model.SummaryType]int, error) {
	counts := make(map[model.SummaryType]int)
	err := s.countGrouped(`SELECT type, COUNT(*) FROM summaries GROUP BY type`, func(key string, n int) {
		counts[model.SummaryType(key)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count summaries by type: %w", err)
	}
	return counts, nil
}

func (s *SQLite) CountSummariesByUrgency() (map[model.Urgency]int, error) {
	counts := make(map[model.Urgency]int)
	err := s.countGrouped(`SELECT urgency, COUNT(*) FROM summaries GROUP BY urgency`, func(key string, n int) {
		counts[model.Urgency(key)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count summaries by urgency: %w", err)
	}
	return counts, nil
}

func (s *SQLite) CountTasksByStatus() (map[model.TaskStatus]int, error) {
	counts := make(map[model.TaskStatus]int)
	err := s.countGrouped(`SELECT status, COUNT(*) FROM tasks GROUP BY status`, func(key string, n int) {
		counts[model.TaskStatus(key)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count tasks by status: %w", err)
	}
	return counts, nil
}

func (s *SQLite) CountTasksByPriority() (map[model.Priority]int, error) {
	counts := make(map[model.Priority]int)
	err := s.countGrouped(`SELECT priority, COUNT(*) FROM tasks GROUP BY priority`, func(key string, n int) {
		counts[model.Priority(key)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count tasks by priority: %w", err)
	}
	return counts, nil
}

func (s *SQLite) CountFeedbackByRating() (map[model.Rating]int, error) {
	counts := make(map[model.Rating]int)
	err := s.countGrouped(`SELECT rating, COUNT(*) FROM feedback GROUP BY rating`, func(key string, n int) {
		counts[model.Rating(key)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("storage: count feedback by rating: %w", err)
	}
	return counts, nil
}

// AverageConfidence returns the mean confidence over all summaries, or 0
// when there are none.
func (s *SQLite) AverageConfidence() (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT AVG(confidence) FROM summaries`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("storage: average confidence: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (s *SQLite) countGrouped(query string, add func(key string, n int)) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}
