package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/fcm"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/webpush"

	"github.com/rs/zerolog"
)

// ErrSubscriptionGone is returned by a PushTransport for an expired or
// unsubscribed credential.
var ErrSubscriptionGone = errors.New("channel: push subscription gone")

// SubscriptionStore is the push subscription storage the channel reads and prunes
type SubscriptionStore interface {
	ListByUserID(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	Delete(ctx context.Context, id string) error
}

// PushTransport delivers to one subscription
type PushTransport interface {
	Push(ctx context.Context, sub domain.PushSubscription, payload compose.Payload) error
}

// VAPIDTransport sends standard browser push messages.
type VAPIDTransport struct {
	Sender *webpush.Sender
}

func (t VAPIDTransport) Push(ctx context.Context, sub domain.PushSubscription, payload compose.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = t.Sender.Send(ctx, webpush.Subscription{Endpoint: sub.Endpoint, P256dh: sub.P256dh, Auth: sub.Auth}, body)
	if errors.Is(err, webpush.ErrGone) {
		return fmt.Errorf("%w: %v", ErrSubscriptionGone, err)
	}
	return err
}

// FCMTransport sends to Firebase registration tokens.
type FCMTransport struct {
	Client *fcm.Client
}

func (t FCMTransport) Push(ctx context.Context, sub domain.PushSubscription, payload compose.Payload) error {
	err := t.Client.SendToDevice(ctx, sub.Token, fcm.NotificationData{
		Title: payload.Title,
		Body:  payload.Body,
		URL:   payload.URL,
	})
	if errors.Is(err, fcm.ErrTokenGone) {
		return fmt.Errorf("%w: %v", ErrSubscriptionGone, err)
	}
	return err
}

// webPushChannel fans a payload out to every subscription of a user.
// Each subscription is attempted independently; a gone one is deleted and
// the rest are unaffected.
type webPushChannel struct {
	store      SubscriptionStore
	transports map[domain.SubscriptionKind]PushTransport
	log        zerolog.Logger
}

// NewWebPush builds the web push channel. Kinds without a transport are
// skipped at send time.
func NewWebPush(store SubscriptionStore, transports map[domain.SubscriptionKind]PushTransport, log zerolog.Logger) Channel {
	return &webPushChannel{store: store, transports: transports, log: log}
}

func (c *webPushChannel) Name() Name { return WebPush }

func (c *webPushChannel) Send(ctx context.Context, userID string, payload compose.Payload) Result {
	subs, err := c.store.ListByUserID(ctx, userID)
	if err != nil {
		return failed(WebPush, err, true)
	}

	plain := compose.Payload{
		Title: compose.StripMarkdown(payload.Title),
		Body:  compose.StripMarkdown(payload.Body),
		URL:   payload.URL,
	}

	res := Result{Channel: WebPush}
	var errs []error
	for _, sub := range subs {
		transport, ok := c.transports[sub.Kind]
		if !ok {
			c.log.Warn().Str("user_id", userID).Str("kind", string(sub.Kind)).Msg("no transport configured for subscription kind, skipping")
			continue
		}

		err := transport.Push(ctx, sub, plain)
		switch {
		case err == nil:
			res.Delivered++
		case errors.Is(err, ErrSubscriptionGone):
			if derr := c.store.Delete(ctx, sub.ID); derr != nil {
				c.log.Error().Err(derr).Str("subscription_id", sub.ID).Msg("failed to delete expired subscription")
				continue
			}
			res.Pruned++
			c.log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("deleted expired push subscription")
		default:
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
		}
	}

	if len(errs) > 0 {
		res.Err = errors.Join(errs...)
		res.Retryable = true
	}
	return res
}
