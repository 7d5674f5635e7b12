package dto

import (
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
)

type RunRequest struct {
	TimeOfDay domain.TimeOfDay `json:"time_of_day"`
}

type InternalRunRequest struct {
	UserID    string           `json:"user_id"`
	TimeOfDay domain.TimeOfDay `json:"time_of_day"`
}

// UpdateSettingsRequest uses pointers so omitted fields keep their value.
// An empty telegram_bot_token clears it; omitting it leaves it unchanged.
type UpdateSettingsRequest struct {
	TelegramEnabled       *bool   `json:"telegram_enabled"`
	TelegramBotToken      *string `json:"telegram_bot_token"`
	TelegramChatID        *string `json:"telegram_chat_id"`
	WebpushEnabled        *bool   `json:"webpush_enabled"`
	WhatsappEnabled       *bool   `json:"whatsapp_enabled"`
	WhatsappNumber        *string `json:"whatsapp_number"`
	Timezone              *string `json:"timezone"`
	DailyBriefMorningTime *string `json:"daily_brief_morning_time"`
	DailyBriefEveningTime *string `json:"daily_brief_evening_time"`
}

type SettingsResponse struct {
	*domain.UserNotificationSettings
	TelegramBotTokenSet bool `json:"telegram_bot_token_set"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SaveSubscriptionRequest accepts a browser PushSubscription.toJSON() body
// or an FCM registration token.
type SaveSubscriptionRequest struct {
	Kind       domain.SubscriptionKind `json:"kind"`
	Endpoint   string                  `json:"endpoint"`
	Keys       SubscriptionKeys        `json:"keys"`
	Token      string                  `json:"token"`
	DeviceInfo string                  `json:"device_info"`
}
