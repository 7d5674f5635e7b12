package api

import (
	"net/http"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/delivery"
	authUsecase "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/usecase"
	notificationDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/delivery"
	taskDelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, notificationHandler *notificationDelivery.NotificationHandler, taskHandler *taskDelivery.TaskHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Internal routes (service key) - cron jobs, Cloud Scheduler, edge functions
		internal := api.Group("/internal")
		internal.Use(delivery.ServiceKeyMiddleware(authUsecase))
		{
			internal.POST("/notifications/run", notificationHandler.InternalRun)
		}

		// Everything below requires a user token
		user := api.Group("")
		user.Use(delivery.AuthMiddleware(authUsecase))

		notifications := user.Group("/notifications")
		{
			notifications.POST("/run", notificationHandler.Run)
		}

		settings := user.Group("/settings")
		{
			settings.GET("/notifications", notificationHandler.GetSettings)
			settings.PUT("/notifications", notificationHandler.UpdateSettings)
		}

		push := user.Group("/push")
		{
			push.POST("/subscriptions", notificationHandler.SaveSubscription)
			push.DELETE("/subscriptions/:id", notificationHandler.DeleteSubscription)
		}

		taskHandler.RegisterRoutes(user)
	}
}
