package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
)

// WhatsAppConfig points at an Evolution API gateway
type WhatsAppConfig struct {
	BaseURL  string
	APIKey   string
	Instance string
}

func (c WhatsAppConfig) validate() error {
	if c.BaseURL == "" || c.APIKey == "" || c.Instance == "" {
		return fmt.Errorf("%w: whatsapp gateway url, api key and instance are required", ErrNotConfigured)
	}
	return nil
}

type sendTextRequest struct {
	Number      string      `json:"number"`
	TextMessage textMessage `json:"textMessage"`
}

type textMessage struct {
	Text string `json:"text"`
}

type whatsAppChannel struct {
	cfg    WhatsAppConfig
	number string
	client *http.Client
}

// NewWhatsApp builds a channel that sends to number through the gateway.
func NewWhatsApp(cfg WhatsAppConfig, number string, client *http.Client) (Channel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if number == "" {
		return nil, fmt.Errorf("%w: whatsapp number is required", ErrNotConfigured)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &whatsAppChannel{cfg: cfg, number: number, client: client}, nil
}

func (c *whatsAppChannel) Name() Name { return WhatsApp }

func (c *whatsAppChannel) Send(ctx context.Context, _ string, payload compose.Payload) Result {
	body, err := json.Marshal(sendTextRequest{
		Number:      c.number,
		TextMessage: textMessage{Text: compose.UnescapeMarkdown(payload.Text())},
	})
	if err != nil {
		return failed(WhatsApp, err, false)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/message/sendText/" + c.cfg.Instance
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failed(WhatsApp, err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return failed(WhatsApp, fmt.Errorf("whatsapp send: %w", err), true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		// Gateway rejections are per-user failures; the grace window caps retries.
		return failed(WhatsApp, fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), true)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return Result{Channel: WhatsApp, Delivered: 1}
}
