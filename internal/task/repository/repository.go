package repository

import (
	"context"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

// TaskRepository defines the task data access the reminder engine needs.
// Task CRUD belongs to the web app; this service only reads rows and moves
// watermarks and completion markers.
type TaskRepository interface {
	// FindByID finds a task by its ID, nil if missing
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// ListDueOrRecurringForUser returns the user's candidate tasks for date:
	// one-off tasks due that day, every recurring task, and anything sitting
	// on the overdue board.
	ListDueOrRecurringForUser(ctx context.Context, userID string, date time.Time) ([]*domain.Task, error)

	// UpdateWatermark moves last_notified_at forward to instant. It never
	// moves it backwards; advanced reports whether a row changed.
	UpdateWatermark(ctx context.Context, taskID string, instant time.Time) (advanced bool, err error)

	// MarkCompleted records a completion: is_completed for one-off tasks,
	// last_successful_completion_date for recurring ones.
	MarkCompleted(ctx context.Context, task *domain.Task, completedAt time.Time) error
}
