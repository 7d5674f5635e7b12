package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository defines access to user notification settings
type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationSettings, error)
	// GetUserTimezone returns the stored IANA zone, empty when unset.
	GetUserTimezone(ctx context.Context, userID string) (string, error)
	// ListUsersWithEnabledChannels returns the settings rows of users that have
	// Telegram or WhatsApp switched on, or at least one push subscription.
	// Subscribers without a settings row are returned with default settings.
	ListUsersWithEnabledChannels(ctx context.Context) ([]*domain.UserNotificationSettings, error)
	Upsert(ctx context.Context, settings *domain.UserNotificationSettings) error
	// UpdateBriefWatermark advances the brief watermark for kind. Older
	// instants are ignored.
	UpdateBriefWatermark(ctx context.Context, userID string, kind domain.TimeOfDay, instant time.Time) (bool, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new instance of settingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserNotificationSettings, error) {
	var s domain.UserNotificationSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) GetUserTimezone(ctx context.Context, userID string) (string, error) {
	s, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s.Timezone, nil
}

func (r *settingsRepository) ListUsersWithEnabledChannels(ctx context.Context) ([]*domain.UserNotificationSettings, error) {
	subscribed := r.db.Model(&domain.PushSubscription{}).Select("user_id")

	var rows []*domain.UserNotificationSettings
	err := r.db.WithContext(ctx).
		Where("telegram_enabled = ?", true).
		Or("whatsapp_enabled = ?", true).
		Or("webpush_enabled = ? AND user_id IN (?)", true, subscribed).
		Order("user_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list users with channels: %w", err)
	}

	// Subscribers that never saved settings get the defaults: web push on,
	// default timezone.
	var orphans []string
	err = r.db.WithContext(ctx).Model(&domain.PushSubscription{}).
		Distinct("user_id").
		Where("user_id NOT IN (?)", r.db.Model(&domain.UserNotificationSettings{}).Select("user_id")).
		Order("user_id").
		Pluck("user_id", &orphans).Error
	if err != nil {
		return nil, fmt.Errorf("list subscribers without settings: %w", err)
	}
	if len(orphans) == 0 {
		return rows, nil
	}
	for _, userID := range orphans {
		rows = append(rows, &domain.UserNotificationSettings{UserID: userID, WebpushEnabled: true})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}

// Upsert writes every user-editable column. Brief watermarks are left alone.
func (r *settingsRepository) Upsert(ctx context.Context, s *domain.UserNotificationSettings) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"telegram_enabled", "telegram_bot_token", "telegram_chat_id",
			"webpush_enabled", "whatsapp_enabled", "whatsapp_number",
			"timezone", "daily_brief_morning_time", "daily_brief_evening_time",
			"updated_at",
		}),
	}).Create(s).Error
}

func (r *settingsRepository) UpdateBriefWatermark(ctx context.Context, userID string, kind domain.TimeOfDay, instant time.Time) (bool, error) {
	var column string
	switch kind {
	case domain.TimeOfDayMorning:
		column = "last_morning_brief_at"
	case domain.TimeOfDayEvening:
		column = "last_evening_brief_at"
	default:
		return false, fmt.Errorf("no brief watermark for %q", kind)
	}

	res := r.db.WithContext(ctx).Model(&domain.UserNotificationSettings{}).
		Where("user_id = ?", userID).
		Where(fmt.Sprintf("(%s IS NULL OR %s < ?)", column, column), instant).
		Updates(map[string]interface{}{column: instant, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("update %s for user %s: %w", column, userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}
