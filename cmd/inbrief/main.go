// Package main implements the inbrief command line interface: inbound
// message processing, task management, feedback and reporting on top of
// the classification engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inbrief/internal/classify"
	"inbrief/internal/config"
	"inbrief/internal/contextstore"
	"inbrief/internal/feedback"
	"inbrief/internal/ident"
	"inbrief/internal/logging"
	"inbrief/internal/metrics"
	"inbrief/internal/pipeline"
	"inbrief/internal/priority"
	"inbrief/internal/storage"
	"inbrief/internal/temporal"
)

// application holds everything a command needs, wired once per invocation.
type application struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *storage.SQLite
	recorder *storage.FileRecorder
	contexts *contextstore.Store
	rules    classify.Ruleset
	pipe     *pipeline.Pipeline
	metrics  *metrics.Metrics
	feedback *feedback.Recorder
}

var (
	app     *application
	verbose bool
	pretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "inbrief",
	Short: "Turn inbound messages into summaries and scheduled tasks",
	Long: `inbrief classifies inbound messages (whatsapp, instagram, email) into
typed summaries and synthesizes prioritized, scheduled tasks with
recommended follow-up actions. Classification is rule-based and
deterministic: the same message and context always yield the same result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	SilenceUsage: true,
}

func newApplication() (*application, error) {
	// running without a .env file is normal
	_ = godotenv.Load()

	cfg := config.New()

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: pretty})
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	rules := classify.Default()
	if cfg.RulesFilePath != "" {
		loaded, err := classify.LoadFile(cfg.RulesFilePath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		rules = loaded
	}

	store, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	recorder, err := storage.NewFileRecorder(cfg.InteractionsPath)
	if err != nil {
		return nil, fmt.Errorf("open interaction log: %w", err)
	}

	contexts := contextstore.New(cfg.ContextCapacity)
	if err := contexts.LoadFile(cfg.ContextSnapshotPath); err != nil {
		logger.Warn().Err(err).Msg("context snapshot not restored")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	ids := ident.New()

	pipe := pipeline.New(
		store,
		recorder,
		contexts,
		classify.New(classify.NewRuleStrategy(rules), cfg.ContextThreshold),
		temporal.NewResolver(cfg.BusinessHour, cfg.ReminderOffset),
		priority.NewEngine(rules.EscalationKeywords, ids),
		ids,
		m,
		logger,
		cfg.BatchWorkers,
	)

	return &application{
		cfg:      cfg,
		log:      logger,
		store:    store,
		recorder: recorder,
		contexts: contexts,
		rules:    rules,
		pipe:     pipe,
		metrics:  m,
		feedback: feedback.NewRecorder(store, logger, m),
	}, nil
}

func (a *application) close() {
	if err := a.contexts.SaveFile(a.cfg.ContextSnapshotPath); err != nil {
		a.log.Warn().Err(err).Msg("context snapshot not saved")
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("store close failed")
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")
}

func main() {
	err := rootCmd.Execute()
	// cleanup runs on the error path too
	if app != nil {
		app.close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
