package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
)

func newSender(t *testing.T) *Sender {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate vapid keys: %v", err)
	}
	s, err := NewSender(Config{PublicKey: pub, PrivateKey: priv, Subject: "mailto:ops@example.com"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	return s
}

func browserSubscription(t *testing.T, endpoint string) Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := make([]byte, 16)
	_, _ = rand.Read(auth)
	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestNewSenderRequiresKeys(t *testing.T) {
	if _, err := NewSender(Config{}); !errors.Is(err, ErrMissingKeys) {
		t.Fatalf("expected ErrMissingKeys, got %v", err)
	}
}

func TestSendStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		gone   bool
		ok     bool
	}{
		{"created", http.StatusCreated, false, true},
		{"gone", http.StatusGone, true, false},
		{"not found", http.StatusNotFound, true, false},
		{"server error", http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotEncoding string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotEncoding = r.Header.Get("Content-Encoding")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newSender(t).Send(context.Background(), browserSubscription(t, srv.URL+"/push/abc"), []byte(`{"title":"t"}`))
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrGone) != tt.gone {
				t.Fatalf("gone = %v, want %v (err %v)", errors.Is(err, ErrGone), tt.gone, err)
			}
			if gotAuth == "" || gotEncoding != "aes128gcm" {
				t.Fatalf("request not VAPID-signed/encrypted: auth=%q encoding=%q", gotAuth, gotEncoding)
			}
		})
	}
}
