package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

var (
	// ErrGone is returned when the push service reports the subscription
	// expired or unsubscribed (404/410).
	ErrGone = errors.New("webpush: subscription is gone")
	// ErrMissingKeys means VAPID keys are not configured.
	ErrMissingKeys = errors.New("webpush: VAPID keys not configured")
)

// DefaultTTL is how long the push service keeps an undelivered message.
const DefaultTTL = 3600

// Config holds VAPID credentials
type Config struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: or https: contact
	TTL        int
	HTTPClient *http.Client
}

// Subscription is a browser PushSubscription
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender delivers encrypted payloads with VAPID auth
type Sender struct {
	cfg Config
}

// NewSender validates cfg and returns a Sender
func NewSender(cfg Config) (*Sender, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, ErrMissingKeys
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Sender{cfg: cfg}, nil
}

// Send pushes payload to sub. Any non-2xx status is an error; 404 and 410
// wrap ErrGone.
func (s *Sender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.cfg.HTTPClient,
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("webpush: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w (status %d)", ErrGone, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// StatusError is a non-2xx push service response other than gone
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webpush: push service returned %d", e.StatusCode)
}
