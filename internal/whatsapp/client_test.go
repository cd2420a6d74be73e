package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"admissions_crm_backend/platform/logger"
)

type gatewayConfig struct{ url string }

func (g gatewayConfig) GetWhatsAppURL() string          { return g.url }
func (gatewayConfig) GetWhatsAppKey() string            { return "user:secret" }
func (gatewayConfig) GetWhatsAppDeviceID() string       { return "device-1" }
func (gatewayConfig) GetWhatsAppBusinessNumber() string { return "9000000000" }

func TestNewClientWithoutURL(t *testing.T) {
	c := NewClient(gatewayConfig{}, logger.New("test"))
	if c != nil {
		t.Fatal("expected nil client")
	}
	if err := c.SendMessage(context.Background(), "9876543210", "hi"); err != nil {
		t.Fatalf("expected nil client to drop messages, got %v", err)
	}
	if c.BusinessNumber() != "" {
		t.Fatal("expected empty business number")
	}
}

func TestSendMessage(t *testing.T) {
	var got sendRequest
	var auth, device string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth, device = r.Header.Get("Authorization"), r.Header.Get("X-Device-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(gatewayConfig{url: srv.URL + "/"}, logger.New("test"))
	if c.BusinessNumber() != "919000000000" {
		t.Fatalf("unexpected business number %s", c.BusinessNumber())
	}
	if err := c.SendMessage(context.Background(), "+91 98765 43210", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "919876543210" || got.Message != "Hello" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if auth != "Basic dXNlcjpzZWNyZXQ=" || device != "device-1" {
		t.Fatalf("unexpected headers %q %q", auth, device)
	}
}

func TestSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(gatewayConfig{url: srv.URL}, logger.New("test"))
	if err := c.SendMessage(context.Background(), "9876543210", "Hello"); err == nil {
		t.Fatal("expected error")
	}
}
