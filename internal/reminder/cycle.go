package reminder

import (
	"fmt"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

// CycleState is a task's status for the current recurrence cycle.
type CycleState struct {
	DueToday          bool `json:"due_today"`
	SatisfiedForCycle bool `json:"satisfied_for_cycle"`
}

// ResolveCycle decides whether task is due on now's calendar day and whether
// its recorded completion covers the current cycle. now must already be in
// the user's timezone.
//
// Malformed weekly/monthly details fail closed: the task is reported as not
// due and the parse error is returned for logging.
func ResolveCycle(task *domain.Task, now time.Time) (CycleState, error) {
	switch task.RecurrenceType {
	case domain.RecurrenceDaily:
		return CycleState{
			DueToday:          true,
			SatisfiedForCycle: completedSince(task.LastSuccessfulCompletionDate, StartOfDay(now)),
		}, nil

	case domain.RecurrenceWeekly:
		days, err := domain.ParseWeekdays(task.Details())
		if err != nil {
			return CycleState{}, fmt.Errorf("reminder: task %s weekly details: %w", task.ID, err)
		}
		return CycleState{
			DueToday:          days.Contains(now.Weekday()),
			SatisfiedForCycle: completedSince(task.LastSuccessfulCompletionDate, lastOccurrence(days, now)),
		}, nil

	case domain.RecurrenceMonthly:
		day, err := domain.ParseMonthDay(task.Details())
		if err != nil {
			return CycleState{}, fmt.Errorf("reminder: task %s monthly details: %w", task.ID, err)
		}
		return CycleState{
			DueToday:          now.Day() == day,
			SatisfiedForCycle: completedSince(task.LastSuccessfulCompletionDate, startOfMonth(now)),
		}, nil

	default:
		return CycleState{
			DueToday:          task.DueDate != nil && SameDate(*task.DueDate, now),
			SatisfiedForCycle: task.IsCompleted,
		}, nil
	}
}

// lastOccurrence is the start of the most recent scheduled day on or before
// now. Anchoring on it keeps a completion from an earlier day of the same
// week from covering a later occurrence.
func lastOccurrence(days domain.WeekdaySet, now time.Time) time.Time {
	day := StartOfDay(now)
	for i := 0; i < 7; i++ {
		if days.Contains(day.Weekday()) {
			return day
		}
		day = day.AddDate(0, 0, -1)
	}
	return day
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func completedSince(last *time.Time, start time.Time) bool {
	return last != nil && !last.Before(start)
}
