package domain

import "time"

// UserNotificationSettings holds a user's channel credentials, timezone and
// brief schedule.
type UserNotificationSettings struct {
	UserID                string     `json:"user_id" gorm:"primaryKey"`
	TelegramEnabled       bool       `json:"telegram_enabled" gorm:"default:false"`
	TelegramBotToken      string     `json:"-"`
	TelegramChatID        string     `json:"telegram_chat_id,omitempty"`
	WebpushEnabled        bool       `json:"webpush_enabled"`
	WhatsappEnabled       bool       `json:"whatsapp_enabled" gorm:"default:false"`
	WhatsappNumber        string     `json:"whatsapp_number,omitempty"`
	Timezone              string     `json:"timezone"`
	DailyBriefMorningTime string     `json:"daily_brief_morning_time,omitempty"` // HH:MM
	DailyBriefEveningTime string     `json:"daily_brief_evening_time,omitempty"` // HH:MM
	LastMorningBriefAt    *time.Time `json:"last_morning_brief_at,omitempty"`
	LastEveningBriefAt    *time.Time `json:"last_evening_brief_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (UserNotificationSettings) TableName() string {
	return "user_notification_settings"
}

// BriefTime returns the configured HH:MM for a brief kind.
func (s *UserNotificationSettings) BriefTime(kind TimeOfDay) string {
	switch kind {
	case TimeOfDayMorning:
		return s.DailyBriefMorningTime
	case TimeOfDayEvening:
		return s.DailyBriefEveningTime
	default:
		return ""
	}
}

// LastBriefAt returns the brief watermark for kind.
func (s *UserNotificationSettings) LastBriefAt(kind TimeOfDay) *time.Time {
	switch kind {
	case TimeOfDayMorning:
		return s.LastMorningBriefAt
	case TimeOfDayEvening:
		return s.LastEveningBriefAt
	default:
		return nil
	}
}
