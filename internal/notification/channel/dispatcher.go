package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DispatcherConfig holds channel credentials and limits for one engine.
type DispatcherConfig struct {
	TelegramAPIURL string
	WhatsApp       WhatsAppConfig
	// Timeout bounds each channel attempt.
	Timeout time.Duration
	// RatePerSec caps outbound calls per channel across users; zero disables.
	RatePerSec float64
	HTTPClient *http.Client
}

// Dispatcher builds a user's channels from their settings and fans payloads
// out to them.
type Dispatcher struct {
	cfg        DispatcherConfig
	subs       SubscriptionStore
	transports map[domain.SubscriptionKind]PushTransport
	limiters   map[Name]*rate.Limiter
	log        zerolog.Logger
}

// NewDispatcher creates a Dispatcher. transports may be empty, in which case
// web push is disabled.
func NewDispatcher(cfg DispatcherConfig, subs SubscriptionStore, transports map[domain.SubscriptionKind]PushTransport, log zerolog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiters := make(map[Name]*rate.Limiter)
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		for _, n := range []Name{WebPush, Telegram, WhatsApp} {
			limiters[n] = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
		}
	}

	return &Dispatcher{
		cfg:        cfg,
		subs:       subs,
		transports: transports,
		limiters:   limiters,
		log:        log,
	}
}

// ChannelsFor returns the channels enabled for a user. A channel that is
// switched on but misconfigured is logged and left out for this run.
func (d *Dispatcher) ChannelsFor(s *domain.UserNotificationSettings) []Channel {
	var out []Channel
	if s == nil {
		return out
	}

	if s.WebpushEnabled {
		if len(d.transports) == 0 {
			d.log.Warn().Str("user_id", s.UserID).Msg("web push enabled but no push transport configured, channel disabled")
		} else {
			out = append(out, NewWebPush(d.subs, d.transports, d.log))
		}
	}

	if s.TelegramEnabled {
		ch, err := NewTelegram(d.cfg.TelegramAPIURL, s.TelegramBotToken, s.TelegramChatID, d.cfg.HTTPClient)
		if err != nil {
			d.log.Warn().Err(err).Str("user_id", s.UserID).Msg("telegram channel disabled")
		} else {
			out = append(out, ch)
		}
	}

	if s.WhatsappEnabled {
		ch, err := NewWhatsApp(d.cfg.WhatsApp, s.WhatsappNumber, d.cfg.HTTPClient)
		if err != nil {
			d.log.Warn().Err(err).Str("user_id", s.UserID).Msg("whatsapp channel disabled")
		} else {
			out = append(out, ch)
		}
	}
	return out
}

// Dispatch sends payload on every channel concurrently and waits for all of
// them. Results are in channel order. A failing or panicking channel never
// affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, payload compose.Payload, channels []Channel) []Result {
	results := make([]Result, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = d.send(ctx, userID, payload, ch)
		}(i, ch)
	}
	wg.Wait()

	for _, r := range results {
		ev := d.log.Debug()
		if r.Err != nil {
			ev = d.log.Warn().Err(r.Err).Bool("retryable", r.Retryable)
		}
		ev.Str("user_id", userID).
			Str("channel", string(r.Channel)).
			Int("delivered", r.Delivered).
			Int("pruned", r.Pruned).
			Msg("channel dispatch finished")
	}
	return results
}

func (d *Dispatcher) send(ctx context.Context, userID string, payload compose.Payload, ch Channel) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(ch.Name(), fmt.Errorf("panic in %s channel: %v", ch.Name(), r), true)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if lim, ok := d.limiters[ch.Name()]; ok {
		if err := lim.Wait(ctx); err != nil {
			return failed(ch.Name(), fmt.Errorf("rate limit wait: %w", err), true)
		}
	}

	res = ch.Send(ctx, userID, payload)
	if res.Channel == "" {
		res.Channel = ch.Name()
	}
	return res
}
