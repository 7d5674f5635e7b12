package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	authUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/usecase"
	notificationDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/delivery"
	taskDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/delivery"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	notificationHandler *notificationDelivery.NotificationHandler
	taskHandler         *taskDelivery.TaskHandler
	log                 zerolog.Logger

	mu     sync.Mutex
	server *http.Server
}

func NewHandler(authUc authUsecase.AuthUsecase, notificationHandler *notificationDelivery.NotificationHandler, taskHandler *taskDelivery.TaskHandler, log zerolog.Logger) *Handler {
	return &Handler{
		authUsecase:         authUc,
		notificationHandler: notificationHandler,
		taskHandler:         taskHandler,
		log:                 log,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.notificationHandler, h.taskHandler)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Start serves HTTP until Shutdown is called
func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	srv := h.server
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
