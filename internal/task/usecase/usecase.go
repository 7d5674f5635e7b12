package usecase

import (
	"context"
	"errors"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrForbidden    = errors.New("task belongs to another user")
)

// TaskUsecase defines the task operations exposed over HTTP
type TaskUsecase interface {
	// ListToday returns the user's tasks for today in their timezone,
	// annotated with cycle status, plus anything on the overdue board.
	ListToday(ctx context.Context, userID string) (*TodayView, error)

	// CompleteTask records a completion for the current cycle
	CompleteTask(ctx context.Context, userID, taskID string) (*TodayTask, error)
}

// TodayTask is a task with its resolved cycle state
type TodayTask struct {
	*domain.Task
	Cycle      reminder.CycleState `json:"cycle"`
	Recurrence string              `json:"recurrence_summary,omitempty"`
	Overdue    bool                `json:"overdue"`
}

// TodayView is the response of ListToday
type TodayView struct {
	Date     string      `json:"date"`
	Timezone string      `json:"timezone"`
	Tasks    []TodayTask `json:"tasks"`
}
