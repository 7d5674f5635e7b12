package usecase

import (
	"context"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/repository"

	"github.com/rs/zerolog"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo repository.TaskRepository
	clock    *reminder.UserClock
	log      zerolog.Logger
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, clock *reminder.UserClock, log zerolog.Logger) TaskUsecase {
	return &taskUsecase{
		taskRepo: taskRepo,
		clock:    clock,
		log:      log,
	}
}

// userNow never fails: an unknown zone falls back to the default one.
func (u *taskUsecase) userNow(ctx context.Context, userID string) time.Time {
	now, err := u.clock.Now(ctx, userID)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", userID).Msg("using default timezone")
	}
	return now
}

func (u *taskUsecase) ListToday(ctx context.Context, userID string) (*TodayView, error) {
	now := u.userNow(ctx, userID)

	tasks, err := u.taskRepo.ListDueOrRecurringForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	view := &TodayView{
		Date:     now.Format(domain.DateLayout),
		Timezone: now.Location().String(),
		Tasks:    make([]TodayTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		state, err := reminder.ResolveCycle(t, now)
		if err != nil {
			u.log.Warn().Err(err).Str("task_id", t.ID).Msg("malformed recurrence, task hidden from today")
			continue
		}
		if !state.DueToday && !t.IsOverdueBoard() {
			continue
		}
		view.Tasks = append(view.Tasks, annotate(t, state))
	}
	return view, nil
}

func (u *taskUsecase) CompleteTask(ctx context.Context, userID, taskID string) (*TodayTask, error) {
	task, err := u.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}

	now := u.userNow(ctx, userID)
	if err := u.taskRepo.MarkCompleted(ctx, task, now); err != nil {
		return nil, err
	}

	// Resolve against the updated row so the caller sees the new cycle state.
	state, err := reminder.ResolveCycle(task, now)
	if err != nil {
		u.log.Warn().Err(err).Str("task_id", task.ID).Msg("completed task has malformed recurrence")
	}
	out := annotate(task, state)
	return &out, nil
}

func annotate(t *domain.Task, state reminder.CycleState) TodayTask {
	return TodayTask{
		Task:       t,
		Cycle:      state,
		Recurrence: compose.RecurrenceSummary(t),
		Overdue:    t.IsOverdueBoard() && !state.SatisfiedForCycle,
	}
}
