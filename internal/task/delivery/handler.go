package delivery

import (
	"errors"
	"net/http"

	authdelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/delivery"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// RegisterRoutes mounts the task routes on an authenticated group
func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.GET("/today", h.GetToday)
	tasks.POST("/:id/complete", h.CompleteTask)
}

// GetToday returns today's tasks with their cycle status
// GET /api/tasks/today
func (h *TaskHandler) GetToday(c *gin.Context) {
	view, err := h.taskUsecase.ListToday(c.Request.Context(), authdelivery.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// CompleteTask marks a task done for its current cycle
// POST /api/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, err := h.taskUsecase.CompleteTask(c.Request.Context(), authdelivery.UserID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, usecase.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, task)
}
