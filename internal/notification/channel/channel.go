// Package channel delivers composed payloads over web push, Telegram and the
// WhatsApp gateway.
package channel

import (
	"context"
	"errors"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
)

// Name identifies a channel in logs and results
type Name string

const (
	WebPush  Name = "webpush"
	Telegram Name = "telegram"
	WhatsApp Name = "whatsapp"
)

// ErrNotConfigured marks a channel that is enabled for a user but lacks
// credentials.
var ErrNotConfigured = errors.New("channel: not configured")

// Channel is one notification transport bound to a single user.
type Channel interface {
	Name() Name
	Send(ctx context.Context, userID string, payload compose.Payload) Result
}

// Result is the outcome of one channel attempt.
type Result struct {
	Channel   Name
	Delivered int // messages accepted; for web push, subscriptions reached
	Pruned    int // dead push subscriptions deleted
	Err       error
	// Retryable marks Err as transient: the same trigger should be tried
	// again on the next pass.
	Retryable bool
}

func (r Result) OK() bool {
	return r.Err == nil
}

func failed(name Name, err error, retryable bool) Result {
	return Result{Channel: name, Err: err, Retryable: retryable}
}
