package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/compose"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

type memStore struct {
	mu      sync.Mutex
	subs    []domain.PushSubscription
	deleted []string
}

func (m *memStore) ListByUserID(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	kept := m.subs[:0]
	for _, s := range m.subs {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.subs = kept
	return nil
}

// scriptedTransport returns the error registered for each endpoint.
type scriptedTransport struct {
	errs map[string]error
	got  []compose.Payload
}

func (s *scriptedTransport) Push(_ context.Context, sub domain.PushSubscription, p compose.Payload) error {
	s.got = append(s.got, p)
	return s.errs[sub.Key()]
}

func TestWebPushPrunesOnlyGoneSubscription(t *testing.T) {
	store := &memStore{subs: []domain.PushSubscription{
		{ID: "s1", UserID: "u1", Kind: domain.SubscriptionVAPID, Endpoint: "https://push/a"},
		{ID: "s2", UserID: "u1", Kind: domain.SubscriptionVAPID, Endpoint: "https://push/gone"},
		{ID: "s3", UserID: "u1", Kind: domain.SubscriptionVAPID, Endpoint: "https://push/c"},
	}}
	transport := &scriptedTransport{errs: map[string]error{"https://push/gone": ErrSubscriptionGone}}
	ch := NewWebPush(store, map[domain.SubscriptionKind]PushTransport{domain.SubscriptionVAPID: transport}, zerolog.Nop())

	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "Lembrete", Body: "*Dentista*", URL: "/tasks"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Delivered != 2 || res.Pruned != 1 {
		t.Fatalf("delivered=%d pruned=%d", res.Delivered, res.Pruned)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "s2" {
		t.Fatalf("deleted = %v", store.deleted)
	}
	remaining, _ := store.ListByUserID(context.Background(), "u1")
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d", len(remaining))
	}
	if transport.got[0].Body != "Dentista" {
		t.Fatalf("push body should be plain text, got %q", transport.got[0].Body)
	}
}

func TestWebPushTransientFailureIsRetryable(t *testing.T) {
	store := &memStore{subs: []domain.PushSubscription{
		{ID: "s1", UserID: "u1", Kind: domain.SubscriptionVAPID, Endpoint: "https://push/a"},
		{ID: "s2", UserID: "u1", Kind: domain.SubscriptionFCM, Token: "no-transport"},
	}}
	transport := &scriptedTransport{errs: map[string]error{"https://push/a": errors.New("503")}}
	ch := NewWebPush(store, map[domain.SubscriptionKind]PushTransport{domain.SubscriptionVAPID: transport}, zerolog.Nop())

	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
	if res.Err == nil || !res.Retryable {
		t.Fatalf("expected retryable error, got %+v", res)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("transient failure must not prune: %v", store.deleted)
	}
}

func TestWebPushNoSubscriptions(t *testing.T) {
	ch := NewWebPush(&memStore{}, map[domain.SubscriptionKind]PushTransport{domain.SubscriptionVAPID: &scriptedTransport{}}, zerolog.Nop())
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
	if res.Err != nil || res.Delivered != 0 {
		t.Fatalf("got %+v", res)
	}
}

func TestWhatsAppSend(t *testing.T) {
	var gotPath, gotKey string
	var gotBody sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ch, err := NewWhatsApp(WhatsAppConfig{BaseURL: srv.URL + "/", APIKey: "k", Instance: "agency"}, "5511999999999", srv.Client())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "Lembrete", Body: "corpo"})
	if res.Err != nil || res.Delivered != 1 {
		t.Fatalf("result = %+v", res)
	}
	if gotPath != "/message/sendText/agency" || gotKey != "k" {
		t.Fatalf("path=%q key=%q", gotPath, gotKey)
	}
	if gotBody.Number != "5511999999999" || gotBody.TextMessage.Text != "*Lembrete*\n\ncorpo" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestWhatsAppStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			}))
			defer srv.Close()

			ch, _ := NewWhatsApp(WhatsAppConfig{BaseURL: srv.URL, APIKey: "k", Instance: "i"}, "55", srv.Client())
			res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
			if res.Err == nil || res.Retryable != tt.retryable {
				t.Fatalf("result = %+v", res)
			}
		})
	}
}

func TestWhatsAppRequiresConfig(t *testing.T) {
	if _, err := NewWhatsApp(WhatsAppConfig{BaseURL: "http://x"}, "55", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotParams map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotParams)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":1718000000,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	}))
	defer srv.Close()

	ch, err := NewTelegram(srv.URL, "123:abc", "42", srv.Client())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "Lembrete", Body: "*Dentista*"})
	if res.Err != nil || res.Delivered != 1 {
		t.Fatalf("result = %+v", res)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotParams["chat_id"] != "42" || gotParams["parse_mode"] != tele.ModeMarkdown {
		t.Fatalf("params = %v", gotParams)
	}
	if !strings.Contains(gotParams["text"].(string), "*Dentista*") {
		t.Fatalf("text = %v", gotParams["text"])
	}
}

func TestTelegramFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
	}))
	defer srv.Close()

	ch, _ := NewTelegram(srv.URL, "123:abc", "42", srv.Client())
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
	if res.Err == nil || !res.Retryable {
		t.Fatalf("result = %+v", res)
	}
}

func TestTelegramClientErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	ch, _ := NewTelegram(srv.URL, "123:abc", "42", srv.Client())
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
	if res.Err == nil || !res.Retryable || res.Delivered != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestTelegramNetworkErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	ch, _ := NewTelegram(url, "123:abc", "42", nil)
	res := ch.Send(context.Background(), "u1", compose.Payload{Title: "x"})
	if res.Err == nil || !res.Retryable {
		t.Fatalf("result = %+v", res)
	}
}

func TestTelegramRequiresCredentials(t *testing.T) {
	if _, err := NewTelegram("http://x", "", "42", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type fakeChannel struct {
	name  Name
	delay time.Duration
	res   Result
	panic bool
	calls int
	mu    sync.Mutex
}

func (f *fakeChannel) Name() Name { return f.name }

func (f *fakeChannel) Send(ctx context.Context, _ string, _ compose.Payload) Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Result{Channel: f.name, Err: ctx.Err(), Retryable: true}
		}
	}
	return f.res
}

func TestDispatchChannelsAreIndependent(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Timeout: time.Second}, &memStore{}, nil, zerolog.Nop())
	telegram := &fakeChannel{name: Telegram, panic: true}
	push := &fakeChannel{name: WebPush, res: Result{Channel: WebPush, Delivered: 2}}
	whatsapp := &fakeChannel{name: WhatsApp, res: Result{Channel: WhatsApp, Err: errors.New("502"), Retryable: true}}

	results := d.Dispatch(context.Background(), "u1", compose.Payload{Title: "x"}, []Channel{telegram, push, whatsapp})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Err == nil || !results[0].Retryable {
		t.Fatalf("panicking channel should report a retryable error: %+v", results[0])
	}
	if results[1].Err != nil || results[1].Delivered != 2 {
		t.Fatalf("web push result affected by telegram: %+v", results[1])
	}
	if results[2].Err == nil {
		t.Fatalf("whatsapp result lost: %+v", results[2])
	}
	if push.calls != 1 || whatsapp.calls != 1 {
		t.Fatalf("calls push=%d whatsapp=%d", push.calls, whatsapp.calls)
	}
}

func TestDispatchTimeoutBoundsSlowChannel(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Timeout: 20 * time.Millisecond}, &memStore{}, nil, zerolog.Nop())
	slow := &fakeChannel{name: Telegram, delay: time.Second}
	fast := &fakeChannel{name: WebPush, res: Result{Channel: WebPush, Delivered: 1}}

	start := time.Now()
	results := d.Dispatch(context.Background(), "u1", compose.Payload{}, []Channel{slow, fast})
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("slow channel blocked dispatch")
	}
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Fatalf("slow result = %+v", results[0])
	}
	if results[1].Delivered != 1 {
		t.Fatalf("fast result = %+v", results[1])
	}
}

func TestChannelsForSkipsMisconfigured(t *testing.T) {
	transports := map[domain.SubscriptionKind]PushTransport{domain.SubscriptionVAPID: &scriptedTransport{}}
	d := NewDispatcher(DispatcherConfig{
		TelegramAPIURL: "http://telegram",
		WhatsApp:       WhatsAppConfig{BaseURL: "http://gw"},
	}, &memStore{}, transports, zerolog.Nop())

	chans := d.ChannelsFor(&domain.UserNotificationSettings{
		UserID:          "u1",
		WebpushEnabled:  true,
		TelegramEnabled: true, TelegramBotToken: "123:abc", TelegramChatID: "42",
		WhatsappEnabled: true, WhatsappNumber: "55",
	})
	var names []string
	for _, c := range chans {
		names = append(names, string(c.Name()))
	}
	if strings.Join(names, ",") != "webpush,telegram" {
		t.Fatalf("channels = %v", names)
	}

	noPush := NewDispatcher(DispatcherConfig{}, &memStore{}, nil, zerolog.Nop())
	if got := noPush.ChannelsFor(&domain.UserNotificationSettings{UserID: "u1", WebpushEnabled: true}); len(got) != 0 {
		t.Fatalf("web push without transports should be disabled, got %d channels", len(got))
	}
}
