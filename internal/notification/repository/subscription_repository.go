package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionRepository defines push subscription operations
type SubscriptionRepository interface {
	// Save stores a subscription, updating the existing row when the same
	// endpoint (VAPID) or token (FCM) is registered again.
	Save(ctx context.Context, sub *domain.PushSubscription) error
	ListByUserID(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	Delete(ctx context.Context, id string) error
	// DeleteForUser removes a subscription only if it belongs to userID.
	DeleteForUser(ctx context.Context, userID, id string) (bool, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new instance of subscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *domain.PushSubscription) error {
	if sub.Kind == "" {
		sub.Kind = domain.SubscriptionVAPID
	}
	keyColumn := "endpoint"
	if sub.Kind == domain.SubscriptionFCM {
		keyColumn = "token"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.PushSubscription
		err := tx.Where("kind = ? AND "+keyColumn+" = ?", sub.Kind, sub.Key()).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			if sub.ID == "" {
				sub.ID = uuid.New().String()
			}
			sub.CreatedAt = now
			sub.UpdatedAt = now
			return tx.Create(sub).Error
		case err != nil:
			return err
		}

		// A browser re-subscribing (or a device changing hands) moves the row.
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		sub.UpdatedAt = time.Now()
		return tx.Model(&existing).Updates(map[string]interface{}{
			"user_id":     sub.UserID,
			"p256dh":      sub.P256dh,
			"auth":        sub.Auth,
			"device_info": sub.DeviceInfo,
			"updated_at":  sub.UpdatedAt,
		}).Error
	})
}

func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	var subs []domain.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.PushSubscription{}).Error
}

func (r *subscriptionRepository) DeleteForUser(ctx context.Context, userID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.PushSubscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
