// Package scheduler runs the background jobs around the task store: a
// periodic sweep that marks long-overdue pending tasks as missed, and a
// daily digest line summarizing open work.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"inbrief/internal/metrics"
	"inbrief/internal/model"
)

// Store is the task surface the jobs operate on.
type Store interface {
	ListOverduePending(before time.Time) ([]model.Task, error)
	UpdateTaskStatus(id string, next model.TaskStatus) error
	CountTasksByStatus() (map[model.TaskStatus]int, error)
}

type Scheduler struct {
	cron       *cron.Cron
	store      Store
	grace      time.Duration
	sweepSpec  string
	digestSpec string
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func New(store Store, grace time.Duration, sweepSpec, digestSpec string, m *metrics.Metrics, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		store:      store,
		grace:      grace,
		sweepSpec:  sweepSpec,
		digestSpec: digestSpec,
		metrics:    m,
		log:        log,
	}
}

// Start registers the sweep and digest jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, func() {
		if _, err := s.Sweep(time.Now().UTC()); err != nil {
			s.log.Error().Err(err).Msg("sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("register sweep %q: %w", s.sweepSpec, err)
	}
	if _, err := s.cron.AddFunc(s.digestSpec, func() {
		if err := s.Digest(); err != nil {
			s.log.Error().Err(err).Msg("digest failed")
		}
	}); err != nil {
		return fmt.Errorf("register digest %q: %w", s.digestSpec, err)
	}
	s.cron.Start()
	s.log.Info().
		Str("sweep", s.sweepSpec).
		Str("digest", s.digestSpec).
		Dur("grace", s.grace).
		Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// IsRunning reports whether any jobs are registered.
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// Sweep marks pending tasks whose schedule passed more than the grace
// window before now as missed. A task that changed state between listing
// and update is skipped, not an error.
func (s *Scheduler) Sweep(now time.Time) (int, error) {
	overdue, err := s.store.ListOverduePending(now.Add(-s.grace))
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}
	swept := 0
	for _, task := range overdue {
		if err := s.store.UpdateTaskStatus(task.ID, model.StatusMissed); err != nil {
			s.log.Warn().Str("task_id", task.ID).Err(err).Msg("sweep transition skipped")
			continue
		}
		s.metrics.TasksSweptMissed.Inc()
		swept++
	}
	if swept > 0 {
		s.log.Info().Int("swept", swept).Msg("overdue pending tasks marked missed")
	}
	return swept, nil
}

// Digest logs one summary line of the task population by status.
func (s *Scheduler) Digest() error {
	counts, err := s.store.CountTasksByStatus()
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	s.log.Info().
		Int("pending", counts[model.StatusPending]).
		Int("in_progress", counts[model.StatusInProgress]).
		Int("completed", counts[model.StatusCompleted]).
		Int("cancelled", counts[model.StatusCancelled]).
		Int("missed", counts[model.StatusMissed]).
		Msg("daily task digest")
	return nil
}
