package fcm

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// ErrTokenGone is returned when FCM no longer knows the registration token.
var ErrTokenGone = errors.New("fcm: registration token is no longer valid")

// Sender is the part of messaging.Client the Client needs
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient Sender
	log             zerolog.Logger
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string, log zerolog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info().Msg("FCM client initialized")
	return NewClientWithSender(messagingClient, log), nil
}

// NewClientWithSender wraps an existing messaging sender
func NewClientWithSender(sender Sender, log zerolog.Logger) *Client {
	return &Client{messagingClient: sender, log: log}
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	// URL is opened by the service worker on click
	URL  string
	Data map[string]string
}

// SendToDevice sends a push notification to a specific device token. A token
// FCM reports as unregistered yields ErrTokenGone.
func (c *Client) SendToDevice(ctx context.Context, token string, notification NotificationData) error {
	data := map[string]string{"url": notification.URL}
	for k, v := range notification.Data {
		data[k] = v
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: notification.Title,
				Body:  notification.Body,
				Icon:  "/icon-192.png",
			},
		},
	}

	response, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err) {
			return fmt.Errorf("%w: %v", ErrTokenGone, err)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	c.log.Debug().Str("message_id", response).Msg("FCM message sent")
	return nil
}
