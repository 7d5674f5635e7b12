package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner is the notification engine as seen by the scheduler
type Runner interface {
	RunNotificationPass(ctx context.Context, req domain.RunRequest) (domain.RunReport, error)
	RunDueBriefs(ctx context.Context) (domain.RunReport, error)
}

// Config holds the cron specs and per-run deadline
type Config struct {
	ReminderSchedule string // e.g. "@every 1m"
	BriefSchedule    string // e.g. "@every 5m"
	// Timeout bounds one run; it should be shorter than the schedule interval.
	Timeout  time.Duration
	Location *time.Location
}

// TaskReminderScheduler drives reminder passes and scheduled briefs
type TaskReminderScheduler struct {
	runner Runner
	cfg    Config
	cron   *cron.Cron
	log    zerolog.Logger
}

// NewTaskReminderScheduler creates a new scheduler
func NewTaskReminderScheduler(runner Runner, cfg Config, log zerolog.Logger) *TaskReminderScheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 50 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := cronLogger{log: log}
	return &TaskReminderScheduler{
		runner: runner,
		cfg:    cfg,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log: log,
	}
}

// Start registers the jobs, runs one reminder pass right away and starts
// the cron loop. An empty brief schedule disables scheduled briefs.
func (s *TaskReminderScheduler) Start() error {
	reminders, err := s.cron.AddFunc(s.cfg.ReminderSchedule, s.runReminders)
	if err != nil {
		return fmt.Errorf("reminder schedule %q: %w", s.cfg.ReminderSchedule, err)
	}
	if s.cfg.BriefSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.BriefSchedule, s.runBriefs); err != nil {
			return fmt.Errorf("brief schedule %q: %w", s.cfg.BriefSchedule, err)
		}
	}

	s.log.Info().
		Str("reminders", s.cfg.ReminderSchedule).
		Str("briefs", s.cfg.BriefSchedule).
		Msg("starting task reminder scheduler")

	// The first pass goes through the same Recover/SkipIfStillRunning chain
	// as the scheduled ones.
	go s.cron.Entry(reminders).WrappedJob.Run()
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *TaskReminderScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

func (s *TaskReminderScheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if _, err := s.runner.RunNotificationPass(ctx, domain.RunRequest{}); err != nil {
		s.log.Error().Err(err).Msg("reminder pass failed")
	}
}

func (s *TaskReminderScheduler) runBriefs() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if _, err := s.runner.RunDueBriefs(ctx); err != nil {
		s.log.Error().Err(err).Msg("brief pass failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
