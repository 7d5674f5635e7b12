package channel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"

	tele "gopkg.in/telebot.v4"
)

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

type telegramChannel struct {
	bot  *tele.Bot
	chat chatRecipient
}

// NewTelegram builds a channel for one user's bot and chat. The bot is
// created offline so no getMe round trip happens per pass.
func NewTelegram(apiURL, token, chatID string, client *http.Client) (Channel, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("%w: telegram bot token and chat id are required", ErrNotConfigured)
	}
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   token,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &telegramChannel{bot: bot, chat: chatRecipient(chatID)}, nil
}

func (c *telegramChannel) Name() Name { return Telegram }

// Send has no context-aware call in telebot; the dispatcher's timeout bounds
// it through the HTTP client instead.
func (c *telegramChannel) Send(ctx context.Context, _ string, payload compose.Payload) Result {
	if err := ctx.Err(); err != nil {
		return failed(Telegram, err, true)
	}
	_, err := c.bot.Send(c.chat, payload.Text(), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		return failed(Telegram, fmt.Errorf("telegram send: %w", err), true)
	}
	return Result{Channel: Telegram, Delivered: 1}
}
