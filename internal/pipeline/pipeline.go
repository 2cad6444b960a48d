// Package pipeline wires validation, context, classification, temporal
// resolution and prioritization into the single path an inbound message
// takes from raw payload to persisted summary and task. Work for the same
// user is serialized so context reads and appends never interleave;
// different users proceed in parallel.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"inbrief/internal/classify"
	"inbrief/internal/contextstore"
	"inbrief/internal/ident"
	"inbrief/internal/metrics"
	"inbrief/internal/model"
	"inbrief/internal/priority"
	"inbrief/internal/storage"
	"inbrief/internal/temporal"
)

// Store is the persistence surface the pipeline writes to.
type Store interface {
	SaveMessage(m model.Message) error
	SaveSummary(s model.Summary) error
	SaveTask(t model.Task) error
}

// Result is everything one processed message produced.
type Result struct {
	Message model.Message `json:"message"`
	Summary model.Summary `json:"summary"`
	Task    model.Task    `json:"task"`
}

type Pipeline struct {
	store      Store
	recorder   storage.Recorder
	contexts   *contextstore.Store
	classifier *classify.Classifier
	resolver   *temporal.Resolver
	engine     *priority.Engine
	ids        ident.Generator
	metrics    *metrics.Metrics
	log        zerolog.Logger
	workers    int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(
	store Store,
	recorder storage.Recorder,
	contexts *contextstore.Store,
	classifier *classify.Classifier,
	resolver *temporal.Resolver,
	engine *priority.Engine,
	ids ident.Generator,
	m *metrics.Metrics,
	log zerolog.Logger,
	workers int,
) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		store:      store,
		recorder:   recorder,
		contexts:   contexts,
		classifier: classifier,
		resolver:   resolver,
		engine:     engine,
		ids:        ids,
		metrics:    m,
		log:        log,
		workers:    workers,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (p *Pipeline) userLock(userID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[userID] = l
	}
	return l
}

// Process runs one message through the full chain. The message keeps its
// own timestamps throughout, so reprocessing identical input later yields
// an identical summary and task apart from the assigned IDs.
func (p *Pipeline) Process(msg model.Message) (Result, error) {
	start := time.Now()
	if err := model.ValidateMessage(msg); err != nil {
		p.metrics.ValidationRejects.Inc()
		p.log.Warn().Str("user_id", msg.UserID).Err(err).Msg("message rejected")
		return Result{}, err
	}
	if msg.ID == "" {
		msg.ID = p.ids.MessageID()
	}

	lock := p.userLock(msg.UserID)
	lock.Lock()
	defer lock.Unlock()

	userCtx := p.contexts.Get(msg.UserID)
	summary := p.classifier.Classify(msg, userCtx)
	summary.ID = p.ids.SummaryID()

	if err := p.store.SaveMessage(msg); err != nil {
		return Result{}, fmt.Errorf("save message: %w", err)
	}
	if err := p.store.SaveSummary(summary); err != nil {
		return Result{}, fmt.Errorf("save summary: %w", err)
	}
	p.contexts.Append(msg.UserID, msg, summary)

	task, res, escalated := p.synthesize(msg, summary)
	if err := p.store.SaveTask(task); err != nil {
		return Result{}, fmt.Errorf("save task: %w", err)
	}

	if p.recorder != nil {
		ev := storage.InteractionEvent{
			Timestamp: msg.Timestamp.UTC(),
			UserID:    msg.UserID,
			Platform:  msg.Platform,
			MessageID: msg.ID,
			SummaryID: summary.ID,
			Type:      summary.Type,
			Urgency:   summary.Urgency,
		}
		if err := p.recorder.AppendInteraction(ev); err != nil {
			p.log.Warn().Str("message_id", msg.ID).Err(err).Msg("interaction log append failed")
		}
	}

	p.count(summary, task, res)
	p.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	p.log.Info().
		Str("message_id", msg.ID).
		Str("summary_id", summary.ID).
		Str("task_id", task.ID).
		Str("type", string(summary.Type)).
		Str("urgency", string(summary.Urgency)).
		Str("priority", string(task.Priority)).
		Str("schedule_method", string(res.Method)).
		Bool("context_used", summary.ContextUsed).
		Bool("escalated", escalated).
		Dur("took", time.Since(start)).
		Msg("message processed")

	return Result{Message: msg, Summary: summary, Task: task}, nil
}

// synthesize derives the task for a freshly classified message: schedule
// from the message text anchored at its timestamp, priority from urgency
// plus escalation wording, recommendations from the fixed action table.
func (p *Pipeline) synthesize(msg model.Message, summary model.Summary) (model.Task, temporal.Resolution, bool) {
	taskType := model.TaskTypeFor(summary.Type)
	res := p.resolver.Resolve(msg.Text, msg.Timestamp, taskType)
	if res.Warning != nil {
		p.log.Warn().
			Str("message_id", msg.ID).
			Str("expression", res.Expression).
			Err(res.Warning).
			Msg("schedule expression unresolved")
	}
	prio, escalated := p.engine.Derive(msg.Text, summary.Urgency)
	task := model.Task{
		ID:              p.ids.TaskID(),
		SummaryID:       summary.ID,
		UserID:          msg.UserID,
		TaskSummary:     summary.SummaryText,
		Type:            taskType,
		ScheduledFor:    res.At,
		Status:          model.StatusPending,
		Priority:        prio,
		ContextScore:    priority.ContextScore(summary.Confidence, res, summary.ContextUsed),
		Recommendations: p.engine.Recommend(taskType, prio, res.At != nil),
		CreatedAt:       msg.Timestamp,
	}
	return task, res, escalated
}

func (p *Pipeline) count(summary model.Summary, task model.Task, res temporal.Resolution) {
	p.metrics.MessagesProcessed.WithLabelValues(string(summary.Type), string(summary.Urgency)).Inc()
	if classify.IsFallback(summary) {
		p.metrics.ClassifierFallbacks.Inc()
	}
	p.metrics.TemporalResolutions.WithLabelValues(string(res.Method)).Inc()
	p.metrics.TasksCreated.WithLabelValues(string(task.Priority)).Inc()
}

// BatchItem pairs one batch input with its outcome. Err carries per-item
// failures; the batch as a whole only errors when cancelled.
type BatchItem struct {
	Index  int
	Result Result
	Err    error
}

// ProcessBatch runs messages through Process with bounded parallelism.
// Messages are partitioned by user and each user's share keeps its input
// order, so a batch replays the same way a sequential feed would. A failed
// item never stops the rest.
func (p *Pipeline) ProcessBatch(ctx context.Context, msgs []model.Message) ([]BatchItem, error) {
	start := time.Now()
	items := make([]BatchItem, len(msgs))
	for i := range items {
		items[i].Index = i
	}

	byUser := make(map[string][]int)
	var order []string
	for i, m := range msgs {
		if _, ok := byUser[m.UserID]; !ok {
			order = append(order, m.UserID)
		}
		byUser[m.UserID] = append(byUser[m.UserID], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, user := range order {
		idxs := byUser[user]
		g.Go(func() error {
			for _, i := range idxs {
				if err := gctx.Err(); err != nil {
					items[i].Err = err
					continue
				}
				res, err := p.Process(msgs[i])
				items[i].Result = res
				items[i].Err = err
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return items, fmt.Errorf("batch interrupted: %w", err)
	}
	p.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return items, nil
}
