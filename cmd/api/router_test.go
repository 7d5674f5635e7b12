package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/usecase"
	notificationDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/delivery"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	taskDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/delivery"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/usecase"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type countingRunner struct{ calls int }

func (r *countingRunner) RunNotificationPass(context.Context, domain.RunRequest) (domain.RunReport, error) {
	r.calls++
	return domain.RunReport{}, nil
}

type emptyTasks struct{}

func (emptyTasks) ListToday(context.Context, string) (*usecase.TodayView, error) {
	return &usecase.TodayView{}, nil
}

func (emptyTasks) CompleteTask(context.Context, string, string) (*usecase.TodayTask, error) {
	return nil, usecase.ErrTaskNotFound
}

func newTestRouter(t *testing.T) (*gin.Engine, authUsecase.AuthUsecase, *countingRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := authUsecase.NewAuthUsecase(&config.Config{JWTSecret: "secret", ServiceKey: "svc"})
	runner := &countingRunner{}
	notif := notificationDelivery.NewNotificationHandler(runner, nil, nil)
	h := NewHandler(auth, notif, taskDelivery.NewTaskHandler(emptyTasks{}), zerolog.Nop())
	return h.Router(), auth, runner
}

func serve(r http.Handler, method, path, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHealthIsPublic(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if code := serve(r, http.MethodGet, "/api/health", ""); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
}

func TestAuthRejectedBeforeProcessing(t *testing.T) {
	r, auth, runner := newTestRouter(t)
	userToken, err := auth.IssueToken("u1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"user run without token", "/api/notifications/run", "", http.StatusUnauthorized},
		{"user run with service key", "/api/notifications/run", "svc", http.StatusUnauthorized},
		{"internal run with user token", "/api/internal/notifications/run", userToken, http.StatusUnauthorized},
		{"internal run with wrong key", "/api/internal/notifications/run", "nope", http.StatusUnauthorized},
		{"user run", "/api/notifications/run", userToken, http.StatusOK},
		{"internal run", "/api/internal/notifications/run", "svc", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := serve(r, http.MethodPost, tt.path, tt.token); code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
		})
	}
	if runner.calls != 2 {
		t.Fatalf("runner calls = %d, want 2", runner.calls)
	}
}

func TestTaskRoutesMounted(t *testing.T) {
	r, auth, _ := newTestRouter(t)
	token, _ := auth.IssueToken("u1", time.Hour)

	if code := serve(r, http.MethodGet, "/api/tasks/today", token); code != http.StatusOK {
		t.Fatalf("today = %d", code)
	}
	if code := serve(r, http.MethodPost, "/api/tasks/x/complete", token); code != http.StatusNotFound {
		t.Fatalf("complete = %d", code)
	}
}

func TestPreflight(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/notifications/run", nil)
	req.Header.Set("Origin", "https://app.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("preflight = %d %v", w.Code, w.Header())
	}
}
