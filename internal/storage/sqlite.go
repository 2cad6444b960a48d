package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"inbrief/internal/model"
)

// SQLite is the system of record. Timestamps are stored as Unix seconds
// and come back in UTC; reasoning and recommendations are stored as JSON
// text columns. All access runs over a single pooled connection, so
// concurrent callers serialize here rather than racing for the write lock.
type SQLite struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	platform TEXT NOT NULL,
	conversation_id TEXT NOT NULL DEFAULT '',
	message_text TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL REFERENCES messages(id),
	summary_text TEXT NOT NULL,
	type TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL,
	confidence REAL NOT NULL,
	reasoning TEXT NOT NULL,
	context_used INTEGER NOT NULL DEFAULT 0,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	summary_id TEXT NOT NULL REFERENCES summaries(id),
	user_id TEXT NOT NULL,
	task_summary TEXT NOT NULL,
	task_type TEXT NOT NULL,
	scheduled_for INTEGER,
	status TEXT NOT NULL DEFAULT 'pending',
	priority TEXT NOT NULL,
	context_score REAL NOT NULL,
	recommendations TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	summary_id TEXT NOT NULL REFERENCES summaries(id),
	rating TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_feedback_summary ON feedback(summary_id);
`

// NewSQLite opens the database at dbPath, applies the pragmas and creates
// the schema if needed.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	// busy_timeout and foreign_keys are per-connection settings; the pool
	// must stay at one connection or other connections run without them.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveMessage inserts a message. Messages are immutable, so a duplicate id
// is an error.
func (s *SQLite) SaveMessage(m model.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, user_id, platform, conversation_id, message_text, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, string(m.Platform), m.ConversationID, m.Text, m.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save message %s: %w", m.ID, err)
	}
	return nil
}

// GetMessage returns the message or a NotFoundError.
func (s *SQLite) GetMessage(id string) (model.Message, error) {
	var m model.Message
	var platform string
	var ts int64
	err := s.db.QueryRow(
		`SELECT id, user_id, platform, conversation_id, message_text, timestamp
		 FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &platform, &m.ConversationID, &m.Text, &ts)
	if err == sql.ErrNoRows {
		return model.Message{}, &model.NotFoundError{Kind: "message", ID: id}
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("storage: get message %s: %w", id, err)
	}
	m.Platform = model.Platform(platform)
	m.Timestamp = time.Unix(ts, 0).UTC()
	return m, nil
}

// SaveSummary inserts a summary. The referenced message must already exist.
func (s *SQLite) SaveSummary(sum model.Summary) error {
	reasoning, err := json.Marshal(sum.Reasoning)
	if err != nil {
		return fmt.Errorf("storage: marshal reasoning for %s: %w", sum.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO summaries (id, message_id, summary_text, type, intent, urgency, confidence, reasoning, context_used, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.MessageID, sum.SummaryText, string(sum.Type), sum.Intent,
		string(sum.Urgency), sum.Confidence, string(reasoning), boolToInt(sum.ContextUsed), sum.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save summary %s: %w", sum.ID, err)
	}
	return nil
}

// GetSummary returns the summary or a NotFoundError.
func (s *SQLite) GetSummary(id string) (model.Summary, error) {
	var sum model.Summary
	var typ, urgency, reasoning string
	var contextUsed int
	var ts int64
	err := s.db.QueryRow(
		`SELECT id, message_id, summary_text, type, intent, urgency, confidence, reasoning, context_used, timestamp
		 FROM summaries WHERE id = ?`, id,
	).Scan(&sum.ID, &sum.MessageID, &sum.SummaryText, &typ, &sum.Intent,
		&urgency, &sum.Confidence, &reasoning, &contextUsed, &ts)
	if err == sql.ErrNoRows {
		return model.Summary{}, &model.NotFoundError{Kind: "summary", ID: id}
	}
	if err != nil {
		return model.Summary{}, fmt.Errorf("storage: get summary %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(reasoning), &sum.Reasoning); err != nil {
		return model.Summary{}, fmt.Errorf("storage: unmarshal reasoning for %s: %w", id, err)
	}
	sum.Type = model.SummaryType(typ)
	sum.Urgency = model.Urgency(urgency)
	sum.ContextUsed = contextUsed != 0
	sum.Timestamp = time.Unix(ts, 0).UTC()
	return sum, nil
}

// SummaryExists reports whether a summary id is known.
func (s *SQLite) SummaryExists(id string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM summaries WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: summary exists %s: %w", id, err)
	}
	return count > 0, nil
}

// SaveTask inserts a task. The referenced summary must already exist.
func (s *SQLite) SaveTask(t model.Task) error {
	recs, err := json.Marshal(t.Recommendations)
	if err != nil {
		return fmt.Errorf("storage: marshal recommendations for %s: %w", t.ID, err)
	}
	var scheduled interface{}
	if t.ScheduledFor != nil {
		scheduled = t.ScheduledFor.Unix()
	}
	_, err = s.db.Exec(
		`INSERT INTO tasks (id, summary_id, user_id, task_summary, task_type, scheduled_for, status, priority, context_score, recommendations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SummaryID, t.UserID, t.TaskSummary, string(t.Type), scheduled,
		string(t.Status), string(t.Priority), t.ContextScore, string(recs), t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save task %s: %w", t.ID, err)
	}
	return nil
}

const taskColumns = `id, summary_id, user_id, task_summary, task_type, scheduled_for, status, priority, context_score, recommendations, created_at`

func scanTask(scan func(dest ...any) error) (model.Task, error) {
	var t model.Task
	var typ, status, priority, recs string
	var scheduled sql.NullInt64
	var created int64
	err := scan(&t.ID, &t.SummaryID, &t.UserID, &t.TaskSummary, &typ, &scheduled,
		&status, &priority, &t.ContextScore, &recs, &created)
	if err != nil {
		return model.Task{}, err
	}
	if err := json.Unmarshal([]byte(recs), &t.Recommendations); err != nil {
		return model.Task{}, fmt.Errorf("unmarshal recommendations for %s: %w", t.ID, err)
	}
	t.Type = model.TaskType(typ)
	t.Status = model.TaskStatus(status)
	t.Priority = model.Priority(priority)
	if scheduled.Valid {
		at := time.Unix(scheduled.Int64, 0).UTC()
		t.ScheduledFor = &at
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

// GetTask returns the task or a NotFoundError.
func (s *SQLite) GetTask(id string) (model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return model.Task{}, &model.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("storage: get task %s: %w", id, err)
	}
	return t, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *SQLite) ListTasks(filter TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("storage: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate tasks: %w", err)
	}
	return tasks, nil
}

// ListOverduePending returns pending tasks whose schedule has passed
// before the given instant.
func (s *SQLite) ListOverduePending(before time.Time) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = ? AND scheduled_for IS NOT NULL AND scheduled_for < ?
		 ORDER BY scheduled_for`,
		string(model.StatusPending), before.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list overdue pending: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("storage: scan overdue task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate overdue tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus moves a task through the state machine. Illegal
// transitions are rejected with a ValidationError, unknown ids with a
// NotFoundError.
func (s *SQLite) UpdateTaskStatus(id string, next model.TaskStatus) error {
	if !next.Valid() {
		return &model.ValidationError{Field: "status", Reason: "unknown value " + string(next)}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin status update: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return &model.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return fmt.Errorf("storage: read task status %s: %w", id, err)
	}
	if !model.TaskStatus(current).CanTransition(next) {
		return &model.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot transition %s from %s to %s", id, current, next),
		}
	}
	if _, err := tx.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, string(next), id); err != nil {
		return fmt.Errorf("storage: update task status %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit status update %s: %w", id, err)
	}
	return nil
}

// CompleteRecommendation marks one recommendation on a task as completed
// at the given instant.
func (s *SQLite) CompleteRecommendation(taskID, recommendationID string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin recommendation update: %w", err)
	}
	defer tx.Rollback()

	var recs string
	err = tx.QueryRow(`SELECT recommendations FROM tasks WHERE id = ?`, taskID).Scan(&recs)
	if err == sql.ErrNoRows {
		return &model.NotFoundError{Kind: "task", ID: taskID}
	}
	if err != nil {
		return fmt.Errorf("storage: read recommendations %s: %w", taskID, err)
	}

	var list []model.Recommendation
	if err := json.Unmarshal([]byte(recs), &list); err != nil {
		return fmt.Errorf("storage: unmarshal recommendations %s: %w", taskID, err)
	}
	found := false
	utc := at.UTC()
	for i := range list {
		if list[i].ID == recommendationID {
			list[i].Completed = true
			list[i].CompletedAt = &utc
			found = true
			break
		}
	}
	if !found {
		return &model.NotFoundError{Kind: "recommendation", ID: recommendationID}
	}

	updated, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("storage: marshal recommendations %s: %w", taskID, err)
	}
	if _, err := tx.Exec(`UPDATE tasks SET recommendations = ? WHERE id = ?`, string(updated), taskID); err != nil {
		return fmt.Errorf("storage: update recommendations %s: %w", taskID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit recommendation update %s: %w", taskID, err)
	}
	return nil
}

// AppendFeedback appends a feedback event. The log is append-only: events
// are never updated or deleted, and several events may reference the same
// summary.
func (s *SQLite) AppendFeedback(f model.FeedbackEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO feedback (summary_id, rating, comment, timestamp) VALUES (?, ?, ?, ?)`,
		f.SummaryID, string(f.Rating), f.Comment, f.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: append feedback for %s: %w", f.SummaryID, err)
	}
	return nil
}

// ListFeedback returns all events for a summary in append order.
func (s *SQLite) ListFeedback(summaryID string) ([]model.FeedbackEvent, error) {
	rows, err := s.db.Query(
		`SELECT summary_id, rating, comment, timestamp FROM feedback WHERE summary_id = ? ORDER BY id`,
		summaryID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list feedback for %s: %w", summaryID, err)
	}
	defer rows.Close()

	var events []model.FeedbackEvent
	for rows.Next() {
		var f model.FeedbackEvent
		var rating string
		var ts int64
		if err := rows.Scan(&f.SummaryID, &rating, &f.Comment, &ts); err != nil {
			return nil, fmt.Errorf("storage: scan feedback: %w", err)
		}
		f.Rating = model.Rating(rating)
		f.Timestamp = time.Unix(ts, 0).UTC()
		events = append(events, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate feedback: %w", err)
	}
	return events, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
