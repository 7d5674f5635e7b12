package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"

	"gorm.io/gorm"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) ListDueOrRecurringForUser(ctx context.Context, userID string, date time.Time) ([]*domain.Task, error) {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(
			r.db.Where("recurrence_type IN ?", []domain.RecurrenceType{domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceMonthly}).
				Or("due_date >= ? AND due_date < ?", day, day.AddDate(0, 0, 1)).
				Or("current_board = ?", domain.BoardOverdue),
		).
		Order("is_priority DESC, created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

func (r *gormTaskRepository) UpdateWatermark(ctx context.Context, taskID string, instant time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND (last_notified_at IS NULL OR last_notified_at < ?)", taskID, instant).
		Updates(map[string]interface{}{
			"last_notified_at": instant,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("update watermark for task %s: %w", taskID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTaskRepository) MarkCompleted(ctx context.Context, task *domain.Task, completedAt time.Time) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if task.RecurrenceType.IsRecurring() {
		task.LastSuccessfulCompletionDate = &completedAt
		updates["last_successful_completion_date"] = completedAt
	} else {
		task.IsCompleted = true
		task.CurrentBoard = domain.BoardCompleted
		updates["is_completed"] = true
		updates["current_board"] = domain.BoardCompleted
		updates["last_successful_completion_date"] = completedAt
		task.LastSuccessfulCompletionDate = &completedAt
	}
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	return nil
}
