package push

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/wg/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

// testSubscription returns a subscription with valid browser-side keys.
func testSubscription(t *testing.T, endpoint string) model.PushSubscription {
	t.Helper()
	p256dh, _, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	auth := make([]byte, 16)
	rand.Read(auth)
	return model.PushSubscription{
		Endpoint:  endpoint,
		P256dhKey: p256dh,
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func newService(t *testing.T) *Service {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	return NewService(pub, priv, "mailto:test@example.com")
}

func TestSendStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
		anyErr  bool
	}{
		{"created", http.StatusCreated, nil, false},
		{"gone", http.StatusGone, ErrExpired, true},
		{"not found", http.StatusNotFound, ErrExpired, true},
		{"server error", http.StatusInternalServerError, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotEncoding string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotEncoding = r.Header.Get("Content-Encoding")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			svc := newService(t)
			err := svc.Send(context.Background(), testSubscription(t, server.URL), Payload{Title: "t", Body: "b"})
			if tt.anyErr != (err != nil) {
				t.Fatalf("err = %v, want error %v", err, tt.anyErr)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if gotAuth == "" || gotEncoding != "aes128gcm" {
				t.Errorf("unexpected request headers auth=%q encoding=%q", gotAuth, gotEncoding)
			}
		})
	}
}

func TestNewServiceDefaultSubscriber(t *testing.T) {
	svc := NewService("pub", "priv", "")
	if svc.subscriber == "" {
		t.Error("expected default subscriber")
	}
	if svc.VAPIDPublicKey() != "pub" {
		t.Errorf("public key = %q", svc.VAPIDPublicKey())
	}
}
