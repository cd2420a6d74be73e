// Package whatsapp sends messages through the WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/phone"
)

type Client struct {
	baseURL        string
	apiKey         string
	deviceID       string
	businessNumber string
	http           *http.Client
	log            *logger.Logger
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway URL is configured; a nil client drops
// every message.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:         cfg.GetWhatsAppKey(),
		deviceID:       cfg.GetWhatsAppDeviceID(),
		businessNumber: phone.WithCountryCode(cfg.GetWhatsAppBusinessNumber()),
		http:           &http.Client{Timeout: 10 * time.Second},
		log:            log,
	}
}

// BusinessNumber is the sending number in 91XXXXXXXXXX form.
func (c *Client) BusinessNumber() string {
	if c == nil {
		return ""
	}
	return c.businessNumber
}

// SendMessage delivers text to a student's number. Numbers are sent as 91XXXXXXXXXX.
func (c *Client) SendMessage(ctx context.Context, to string, message string) error {
	if c == nil {
		return nil
	}
	recipient := phone.WithCountryCode(to)
	if recipient == "" {
		return fmt.Errorf("whatsapp recipient is empty")
	}

	body, err := json.Marshal(sendRequest{Phone: recipient, Message: message})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", authHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.WithContext(ctx).Info("whatsapp message sent", "to", recipient)
	return nil
}

// authHeader accepts either a ready "Basic ..." value or user:pass.
func authHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
