package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/delivery"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

type stubUsecase struct {
	completeErr error
	lastUser    string
}

func (s *stubUsecase) ListToday(_ context.Context, userID string) (*usecase.TodayView, error) {
	s.lastUser = userID
	return &usecase.TodayView{Date: "2024-06-10", Timezone: "UTC", Tasks: []usecase.TodayTask{
		{Task: &domain.Task{ID: "t1", Title: "Dentista"}, Cycle: reminder.CycleState{DueToday: true}},
	}}, nil
}

func (s *stubUsecase) CompleteTask(_ context.Context, userID, taskID string) (*usecase.TodayTask, error) {
	s.lastUser = userID
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &usecase.TodayTask{Task: &domain.Task{ID: taskID}, Cycle: reminder.CycleState{DueToday: true, SatisfiedForCycle: true}}, nil
}

func newRouter(uc usecase.TaskUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(authdelivery.UserIDKey, "u1")
		c.Next()
	})
	NewTaskHandler(uc).RegisterRoutes(api)
	return r
}

func TestGetToday(t *testing.T) {
	uc := &stubUsecase{}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Date  string `json:"date"`
		Tasks []struct {
			ID    string              `json:"id"`
			Cycle reminder.CycleState `json:"cycle"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if uc.lastUser != "u1" || len(body.Tasks) != 1 || body.Tasks[0].ID != "t1" || !body.Tasks[0].Cycle.DueToday {
		t.Fatalf("body = %+v", body)
	}
}

func TestCompleteTaskStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"missing", usecase.ErrTaskNotFound, http.StatusNotFound},
		{"foreign", usecase.ErrForbidden, http.StatusForbidden},
		{"db down", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(&stubUsecase{completeErr: tt.err}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks/t1/complete", nil))
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
		})
	}
}
