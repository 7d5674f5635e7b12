package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/channel"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	taskdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TaskStore is the task access a pass needs
type TaskStore interface {
	ListDueOrRecurringForUser(ctx context.Context, userID string, date time.Time) ([]*taskdomain.Task, error)
	UpdateWatermark(ctx context.Context, taskID string, instant time.Time) (bool, error)
}

// SettingsStore is the settings access a pass needs
type SettingsStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationSettings, error)
	ListUsersWithEnabledChannels(ctx context.Context) ([]*domain.UserNotificationSettings, error)
	UpdateBriefWatermark(ctx context.Context, userID string, kind domain.TimeOfDay, instant time.Time) (bool, error)
}

// Dispatcher resolves and drives a user's channels
type Dispatcher interface {
	ChannelsFor(settings *domain.UserNotificationSettings) []channel.Channel
	Dispatch(ctx context.Context, userID string, payload compose.Payload, channels []channel.Channel) []channel.Result
}

// EngineConfig carries everything a pass touches. Nothing is global.
type EngineConfig struct {
	Tasks      TaskStore
	Settings   SettingsStore
	Dispatcher Dispatcher
	Clock      *reminder.UserClock
	// Concurrency bounds how many users are processed at once.
	Concurrency int
	// BriefGrace is how long after a configured brief time the scheduled
	// brief may still go out.
	BriefGrace time.Duration
	Logger     zerolog.Logger
}

// Engine runs notification passes
type Engine struct {
	cfg EngineConfig
	log zerolog.Logger
}

var ErrIncompleteConfig = errors.New("notification: engine config is incomplete")

// NewEngine validates cfg and returns an Engine
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Tasks == nil || cfg.Settings == nil || cfg.Dispatcher == nil || cfg.Clock == nil {
		return nil, ErrIncompleteConfig
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BriefGrace <= 0 {
		cfg.BriefGrace = 30 * time.Minute
	}
	return &Engine{cfg: cfg, log: cfg.Logger}, nil
}

// RunNotificationPass evaluates reminders, or sends a brief when
// req.TimeOfDay is set, for one user or for every user with a channel.
// Per-user and per-task failures are logged and counted, never returned.
func (e *Engine) RunNotificationPass(ctx context.Context, req domain.RunRequest) (domain.RunReport, error) {
	report := domain.RunReport{StartedAt: e.cfg.Clock.Instant()}
	if err := req.Validate(); err != nil {
		return report, err
	}
	defer func() { e.finish(&report, req) }()

	users, err := e.usersFor(ctx, req.UserID)
	if err != nil {
		return report, err
	}

	err = e.forEachUser(ctx, users, &report, func(ctx context.Context, s *domain.UserNotificationSettings) domain.RunReport {
		return e.processUser(ctx, s, req.TimeOfDay, time.Time{})
	})
	return report, err
}

// RunDueBriefs sends every morning and evening brief whose configured time
// has passed within BriefGrace and has not been sent yet today.
func (e *Engine) RunDueBriefs(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{StartedAt: e.cfg.Clock.Instant()}
	defer func() { e.finish(&report, domain.RunRequest{TimeOfDay: "scheduled"}) }()

	users, err := e.cfg.Settings.ListUsersWithEnabledChannels(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	err = e.forEachUser(ctx, users, &report, func(ctx context.Context, s *domain.UserNotificationSettings) domain.RunReport {
		var r domain.RunReport
		now, zerr := e.cfg.Clock.NowIn(s.Timezone)
		if zerr != nil {
			e.log.Warn().Err(zerr).Str("user_id", s.UserID).Msg("using default timezone")
		}
		for _, kind := range []domain.TimeOfDay{domain.TimeOfDayMorning, domain.TimeOfDayEvening} {
			instant, due := e.briefDue(s, kind, now)
			if !due {
				continue
			}
			r.Merge(e.processUser(ctx, s, kind, instant))
		}
		if r.Users > 1 {
			r.Users = 1
		}
		return r
	})
	return report, err
}

func (e *Engine) finish(report *domain.RunReport, req domain.RunRequest) {
	report.FinishedAt = e.cfg.Clock.Instant()
	e.log.Info().
		Str("user_id", req.UserID).
		Str("time_of_day", string(req.TimeOfDay)).
		Int("users", report.Users).
		Int("tasks", report.TasksEvaluated).
		Int("triggers", report.TriggersFired).
		Int("briefs", report.BriefsSent).
		Int("deliveries", report.Deliveries).
		Int("channel_failures", report.ChannelFailures).
		Int("pruned", report.SubscriptionsPrune).
		Int("task_errors", report.TaskErrors).
		Int("watermarks_held", report.WatermarksHeld).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("notification pass finished")
}

func (e *Engine) usersFor(ctx context.Context, userID string) ([]*domain.UserNotificationSettings, error) {
	if userID == "" {
		users, err := e.cfg.Settings.ListUsersWithEnabledChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return users, nil
	}

	s, err := e.cfg.Settings.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load settings for user %s: %w", userID, err)
	}
	if s == nil {
		// No settings row yet: push subscriptions may still exist.
		s = &domain.UserNotificationSettings{UserID: userID, WebpushEnabled: true}
	}
	return []*domain.UserNotificationSettings{s}, nil
}

func (e *Engine) forEachUser(ctx context.Context, users []*domain.UserNotificationSettings, report *domain.RunReport, fn func(context.Context, *domain.UserNotificationSettings) domain.RunReport) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, s := range users {
		s := s
		g.Go(func() error {
			r := fn(gctx, s)
			mu.Lock()
			report.Merge(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// processUser runs one user's reminders or brief. briefInstant is the brief
// watermark to commit; zero means "now".
func (e *Engine) processUser(ctx context.Context, s *domain.UserNotificationSettings, kind domain.TimeOfDay, briefInstant time.Time) (report domain.RunReport) {
	log := e.log.With().Str("user_id", s.UserID).Logger()
	report.Users = 1
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("user processing panicked")
			report.TaskErrors++
		}
	}()

	now, err := e.cfg.Clock.NowIn(s.Timezone)
	if err != nil {
		log.Warn().Err(err).Msg("using default timezone")
	}

	channels := e.cfg.Dispatcher.ChannelsFor(s)
	if len(channels) == 0 {
		log.Debug().Msg("no usable channels, skipping user")
		return report
	}

	tasks, err := e.cfg.Tasks.ListDueOrRecurringForUser(ctx, s.UserID, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tasks")
		report.TaskErrors++
		return report
	}

	if kind != "" {
		if briefInstant.IsZero() {
			briefInstant = now
		}
		report.Merge(e.sendBrief(ctx, log, s, kind, channels, tasks, now, briefInstant))
		report.Users = 1
		return report
	}

	for _, t := range tasks {
		report.Merge(e.processTask(ctx, log, s.UserID, channels, t, now))
	}
	return report
}

func (e *Engine) processTask(ctx context.Context, log zerolog.Logger, userID string, channels []channel.Channel, t *taskdomain.Task, now time.Time) (report domain.RunReport) {
	log = log.With().Str("task_id", t.ID).Logger()
	report.TasksEvaluated = 1
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("task processing panicked")
			report.TaskErrors++
		}
	}()

	state, err := reminder.ResolveCycle(t, now)
	if err != nil {
		log.Warn().Err(err).Msg("malformed recurrence, task treated as not due")
		report.TaskErrors++
		return report
	}
	if !state.DueToday {
		return report
	}

	triggers, err := reminder.ComputeTriggers(t, now)
	if err != nil {
		log.Warn().Err(err).Msg("cannot compute triggers")
		report.TaskErrors++
		return report
	}

	fired := reminder.FiredTriggers(triggers, now, t.LastNotifiedAt, state)
	trigger, ok := reminder.Latest(fired)
	if !ok {
		return report
	}
	report.TriggersFired = 1

	payload := compose.Reminder(t, trigger, state)
	results := e.cfg.Dispatcher.Dispatch(ctx, userID, payload, channels)
	tally(&report, results)

	if !shouldAdvance(results) {
		report.WatermarksHeld = 1
		log.Warn().Str("trigger", string(trigger.Kind)).Msg("every channel failed transiently, watermark held for retry")
		return report
	}
	if _, err := e.cfg.Tasks.UpdateWatermark(ctx, t.ID, trigger.Instant.UTC()); err != nil {
		log.Error().Err(err).Str("trigger", string(trigger.Kind)).Msg("failed to commit watermark")
		report.TaskErrors++
		return report
	}
	log.Info().Str("trigger", string(trigger.Kind)).Time("instant", trigger.Instant).Msg("reminder sent")
	return report
}

func (e *Engine) sendBrief(ctx context.Context, log zerolog.Logger, s *domain.UserNotificationSettings, kind domain.TimeOfDay, channels []channel.Channel, tasks []*taskdomain.Task, now, instant time.Time) (report domain.RunReport) {
	items := make([]compose.BriefItem, 0, len(tasks))
	for _, t := range tasks {
		report.TasksEvaluated++
		state, err := reminder.ResolveCycle(t, now)
		if err != nil {
			log.Warn().Err(err).Str("task_id", t.ID).Msg("malformed recurrence, task treated as not due")
			report.TaskErrors++
		}
		items = append(items, compose.BriefItem{Task: t, State: state})
	}

	results := e.cfg.Dispatcher.Dispatch(ctx, s.UserID, compose.Brief(kind, items), channels)
	tally(&report, results)
	for _, r := range results {
		if r.Delivered > 0 {
			report.BriefsSent = 1
			break
		}
	}

	if kind == domain.TimeOfDayTest {
		return report
	}
	if !shouldAdvance(results) {
		report.WatermarksHeld = 1
		log.Warn().Str("brief", string(kind)).Msg("every channel failed transiently, brief will be retried")
		return report
	}
	if _, err := e.cfg.Settings.UpdateBriefWatermark(ctx, s.UserID, kind, instant.UTC()); err != nil {
		log.Error().Err(err).Str("brief", string(kind)).Msg("failed to commit brief watermark")
	}
	return report
}

// briefDue reports whether kind's brief is inside its window at now and has
// not been sent for today's instant.
func (e *Engine) briefDue(s *domain.UserNotificationSettings, kind domain.TimeOfDay, now time.Time) (time.Time, bool) {
	raw := s.BriefTime(kind)
	if raw == "" {
		return time.Time{}, false
	}
	h, m, err := taskdomain.ParseTimeOfDay(raw)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", s.UserID).Str("brief", string(kind)).Msg("invalid brief time")
		return time.Time{}, false
	}
	y, mo, d := now.Date()
	instant := time.Date(y, mo, d, h, m, 0, 0, now.Location())
	if now.Before(instant) || !now.Before(instant.Add(e.cfg.BriefGrace)) {
		return time.Time{}, false
	}
	if last := s.LastBriefAt(kind); last != nil && !last.Before(instant) {
		return time.Time{}, false
	}
	return instant, true
}

func tally(report *domain.RunReport, results []channel.Result) {
	for _, r := range results {
		report.Deliveries += r.Delivered
		report.SubscriptionsPrune += r.Pruned
		if r.Err != nil {
			report.ChannelFailures++
		}
	}
}

// shouldAdvance decides the shared watermark. It moves when any channel
// delivered, or when nothing failed in a way a retry could fix. It is held
// only when every failure is transient and nothing got through.
func shouldAdvance(results []channel.Result) bool {
	retryable := false
	for _, r := range results {
		if r.Delivered > 0 {
			return true
		}
		if r.Err != nil && r.Retryable {
			retryable = true
		}
	}
	return !retryable
}
