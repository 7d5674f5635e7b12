package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	authdelivery "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/delivery"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/dto"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/repository"
	taskdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"

	"github.com/gin-gonic/gin"
)

// Runner executes a notification pass
type Runner interface {
	RunNotificationPass(ctx context.Context, req domain.RunRequest) (domain.RunReport, error)
}

// NotificationHandler handles notification runs, settings and push subscriptions
type NotificationHandler struct {
	runner        Runner
	settingsRepo  repository.SettingsRepository
	subscriptions repository.SubscriptionRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(runner Runner, settingsRepo repository.SettingsRepository, subscriptions repository.SubscriptionRepository) *NotificationHandler {
	return &NotificationHandler{
		runner:        runner,
		settingsRepo:  settingsRepo,
		subscriptions: subscriptions,
	}
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Run triggers a pass for the authenticated user
// POST /api/notifications/run
func (h *NotificationHandler) Run(c *gin.Context) {
	var req dto.RunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, domain.RunRequest{UserID: authdelivery.UserID(c), TimeOfDay: req.TimeOfDay})
}

// InternalRun triggers a pass for one or all users; service key only
// POST /api/internal/notifications/run
func (h *NotificationHandler) InternalRun(c *gin.Context) {
	var req dto.InternalRunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, domain.RunRequest{UserID: req.UserID, TimeOfDay: req.TimeOfDay})
}

func (h *NotificationHandler) run(c *gin.Context, req domain.RunRequest) {
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.runner.RunNotificationPass(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetSettings returns the user's notification settings
// GET /api/settings/notifications
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	settings, err := h.loadSettings(c.Request.Context(), authdelivery.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// UpdateSettings applies a partial update to the user's notification settings
// PUT /api/settings/notifications
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.loadSettings(c.Request.Context(), authdelivery.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if msg := applySettings(settings, &req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.settingsRepo.Upsert(c.Request.Context(), settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// loadSettings returns the stored row or the defaults for a new user.
func (h *NotificationHandler) loadSettings(ctx context.Context, userID string) (*domain.UserNotificationSettings, error) {
	settings, err := h.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &domain.UserNotificationSettings{UserID: userID, WebpushEnabled: true}
	}
	return settings, nil
}

func applySettings(s *domain.UserNotificationSettings, req *dto.UpdateSettingsRequest) string {
	if req.Timezone != nil {
		zone := strings.TrimSpace(*req.Timezone)
		if zone != "" {
			if _, err := time.LoadLocation(zone); err != nil {
				return "invalid timezone"
			}
		}
		s.Timezone = zone
	}
	for _, field := range []struct {
		in  *string
		out *string
	}{
		{req.DailyBriefMorningTime, &s.DailyBriefMorningTime},
		{req.DailyBriefEveningTime, &s.DailyBriefEveningTime},
	} {
		if field.in == nil {
			continue
		}
		v := strings.TrimSpace(*field.in)
		if v != "" {
			if _, _, err := taskdomain.ParseTimeOfDay(v); err != nil {
				return "brief times must be HH:MM"
			}
		}
		*field.out = v
	}

	if req.TelegramEnabled != nil {
		s.TelegramEnabled = *req.TelegramEnabled
	}
	if req.TelegramBotToken != nil {
		s.TelegramBotToken = strings.TrimSpace(*req.TelegramBotToken)
	}
	if req.TelegramChatID != nil {
		s.TelegramChatID = strings.TrimSpace(*req.TelegramChatID)
	}
	if req.WebpushEnabled != nil {
		s.WebpushEnabled = *req.WebpushEnabled
	}
	if req.WhatsappEnabled != nil {
		s.WhatsappEnabled = *req.WhatsappEnabled
	}
	if req.WhatsappNumber != nil {
		s.WhatsappNumber = strings.TrimSpace(*req.WhatsappNumber)
	}
	return ""
}

func toSettingsResponse(s *domain.UserNotificationSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		UserNotificationSettings: s,
		TelegramBotTokenSet:      s.TelegramBotToken != "",
	}
}

// SaveSubscription registers a browser push subscription or FCM token
// POST /api/push/subscriptions
func (h *NotificationHandler) SaveSubscription(c *gin.Context) {
	var req dto.SaveSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := &domain.PushSubscription{
		UserID:     authdelivery.UserID(c),
		Kind:       req.Kind,
		DeviceInfo: req.DeviceInfo,
	}
	switch req.Kind {
	case domain.SubscriptionFCM:
		if req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		sub.Token = req.Token
	case "", domain.SubscriptionVAPID:
		if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint, keys.p256dh and keys.auth are required"})
			return
		}
		sub.Kind = domain.SubscriptionVAPID
		sub.Endpoint = req.Endpoint
		sub.P256dh = req.Keys.P256dh
		sub.Auth = req.Keys.Auth
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subscription kind"})
		return
	}

	if err := h.subscriptions.Save(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// DeleteSubscription removes one of the user's subscriptions
// DELETE /api/push/subscriptions/:id
func (h *NotificationHandler) DeleteSubscription(c *gin.Context) {
	deleted, err := h.subscriptions.DeleteForUser(c.Request.Context(), authdelivery.UserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription removed"})
}
