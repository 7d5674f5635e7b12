package domain

import "time"

// SubscriptionKind tells which push transport a subscription belongs to
type SubscriptionKind string

const (
	// SubscriptionVAPID is a raw browser PushSubscription (endpoint + keys).
	SubscriptionVAPID SubscriptionKind = "vapid"
	// SubscriptionFCM is a Firebase Cloud Messaging registration token.
	SubscriptionFCM SubscriptionKind = "fcm"
)

// PushSubscription is a browser or device push credential owned by a user.
type PushSubscription struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	UserID     string           `json:"user_id" gorm:"index;not null"`
	Kind       SubscriptionKind `json:"kind" gorm:"default:vapid"`
	Endpoint   string           `json:"endpoint,omitempty" gorm:"index"`
	P256dh     string           `json:"-"`
	Auth       string           `json:"-"`
	Token      string           `json:"-" gorm:"index"` // FCM only
	DeviceInfo string           `json:"device_info,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Key is the identity the subscription is upserted on.
func (p *PushSubscription) Key() string {
	if p.Kind == SubscriptionFCM {
		return p.Token
	}
	return p.Endpoint
}
