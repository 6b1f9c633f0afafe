// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package messaging is the client for the WhatsApp-style messaging gateway
// used to text clients from the dashboard, plus verification helpers for the
// gateway's inbound callbacks.
package messaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/breaker"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
)

// ErrNotConfigured is returned when no gateway URL is set.
var ErrNotConfigured = errors.New("messaging gateway not configured")

// ErrInvalidPhone is returned for numbers with too few digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// SendResult describes an accepted outbound message.
type SendResult struct {
	MessageID string    `json:"message_id,omitempty"`
	Phone     string    `json:"phone"`
	SentAt    time.Time `json:"sent_at"`
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, body string) (SendResult, error)
}

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("messaging gateway returned %d: %s", e.Status, e.Message)
}

// maxResponseBody caps how much of a gateway response is read.
const maxResponseBody = 4096

// Client posts messages to an HTTP gateway.
type Client struct {
	url     string
	token   string
	http    *http.Client
	breaker *breaker.Breaker[SendResult]
}

// NewClient creates a gateway client for cfg.
func NewClient(cfg config.MessagingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:   cfg.GatewayURL,
		token: cfg.APIToken,
		http:  &http.Client{Timeout: timeout},
		breaker: breaker.New[SendResult](breaker.Settings{
			Name:      "messaging-gateway",
			IsFailure: isTransient,
		}),
	}
}

// New returns a Client, or Unconfigured when cfg has no gateway URL.
func New(cfg config.MessagingConfig) Sender {
	if cfg.GatewayURL == "" {
		return Unconfigured{}
	}
	return NewClient(cfg)
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send implements Sender.
func (c *Client) Send(ctx context.Context, phone, body string) (SendResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return SendResult{}, err
	}

	res, err := c.breaker.Execute(func() (SendResult, error) {
		return c.post(ctx, normalized, body)
	})
	metrics.RecordMessage("outbound", err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("phone", MaskPhone(normalized)).Msg("Message send failed")
		return SendResult{}, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, phone, body string) (SendResult, error) {
	payload, err := json.Marshal(sendRequest{Phone: phone, Message: body})
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Salondesk/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to reach messaging gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		respBody = []byte("(failed to read response)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{}, &GatewayError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	result := SendResult{Phone: phone, SentAt: time.Now().UTC()}
	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err == nil {
		if id, ok := data["id"].(string); ok {
			result.MessageID = id
		} else if id, ok := data["message_id"].(string); ok {
			result.MessageID = id
		}
	}
	return result, nil
}

// isTransient keeps 4xx rejections (bad number, bad token) from opening the
// circuit.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Status >= 500 || ge.Status == http.StatusTooManyRequests
	}
	return true
}

// Unconfigured is the Sender used when no gateway is set.
type Unconfigured struct{}

// Send implements Sender.
func (Unconfigured) Send(context.Context, string, string) (SendResult, error) {
	return SendResult{}, ErrNotConfigured
}
