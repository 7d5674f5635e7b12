package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

var ErrNoDueDate = errors.New("reminder: one-off task has no due date")

type TriggerKind string

const (
	TriggerPreDue  TriggerKind = "pre_due_15m"
	TriggerAtDue   TriggerKind = "at_due"
	TriggerPostDue TriggerKind = "post_due_60m"
)

const (
	PreDueLead   = 15 * time.Minute
	PostDueDelay = 60 * time.Minute
	AtDueGrace   = 5 * time.Minute
)

// Trigger is one reminder instant derived from a task's due time.
type Trigger struct {
	Kind    TriggerKind `json:"kind"`
	Instant time.Time   `json:"instant"`
}

// Grace is how long after Instant the trigger may still be delivered. Each
// window ends before the next trigger's opens.
func (t Trigger) Grace() time.Duration {
	switch t.Kind {
	case TriggerPreDue:
		return PreDueLead
	case TriggerAtDue:
		return AtDueGrace
	case TriggerPostDue:
		return PostDueDelay
	default:
		return 0
	}
}

// ComputeTriggers returns the pre-due, at-due and post-due instants for task,
// or nil when it has no time of day. One-off tasks are anchored on due_date,
// recurring tasks on now's calendar day. now must be in the user's timezone.
func ComputeTriggers(task *domain.Task, now time.Time) ([]Trigger, error) {
	if task.TimeOfDay() == "" {
		return nil, nil
	}
	hour, minute, err := domain.ParseTimeOfDay(task.TimeOfDay())
	if err != nil {
		return nil, fmt.Errorf("reminder: task %s: %w", task.ID, err)
	}

	y, m, d := now.Date()
	if !task.RecurrenceType.IsRecurring() {
		if task.DueDate == nil {
			return nil, nil
		}
		y, m, d = task.DueDate.UTC().Date()
	}

	at := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	return []Trigger{
		{Kind: TriggerPreDue, Instant: at.Add(-PreDueLead)},
		{Kind: TriggerAtDue, Instant: at},
		{Kind: TriggerPostDue, Instant: at.Add(PostDueDelay)},
	}, nil
}

// HasFired reports whether trigger is newly due at now: its instant has
// passed, its grace window is still open, and the watermark has not reached it.
func HasFired(trigger Trigger, now time.Time, lastNotifiedAt *time.Time) bool {
	if now.Before(trigger.Instant) {
		return false
	}
	if !now.Before(trigger.Instant.Add(trigger.Grace())) {
		return false
	}
	return lastNotifiedAt == nil || lastNotifiedAt.Before(trigger.Instant)
}

// FiredTriggers filters triggers down to those that fire at now. The post-due
// nag is dropped once the task is satisfied for its cycle.
func FiredTriggers(triggers []Trigger, now time.Time, lastNotifiedAt *time.Time, state CycleState) []Trigger {
	var fired []Trigger
	for _, tr := range triggers {
		if tr.Kind == TriggerPostDue && state.SatisfiedForCycle {
			continue
		}
		if HasFired(tr, now, lastNotifiedAt) {
			fired = append(fired, tr)
		}
	}
	return fired
}

// Latest returns the trigger with the greatest instant.
func Latest(triggers []Trigger) (Trigger, bool) {
	if len(triggers) == 0 {
		return Trigger{}, false
	}
	latest := triggers[0]
	for _, tr := range triggers[1:] {
		if tr.Instant.After(latest.Instant) {
			latest = tr
		}
	}
	return latest, true
}
