// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/conversation"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/messaging"
	"github.com/tomtom215/salondesk/internal/metrics"
	"github.com/tomtom215/salondesk/internal/notify"
	"github.com/tomtom215/salondesk/internal/validation"
)

// SendMessageRequest is the body of POST /api/send-message.
type SendMessageRequest struct {
	Phone   string `json:"phone" validate:"required,min=5,max=32,phone"`
	Message string `json:"message" validate:"required,max=4096"`
}

// SendMessageResponse acknowledges an accepted outbound message.
type SendMessageResponse struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id"`
	Phone     string    `json:"phone"`
	SentAt    time.Time `json:"sent_at"`
}

// InboundMessage is the gateway's callback body.
type InboundMessage struct {
	Phone      string    `json:"phone" validate:"required,min=5,max=32,phone"`
	Message    string    `json:"message" validate:"required,max=4096"`
	SenderName string    `json:"sender_name" validate:"omitempty,max=200"`
	MessageID  string    `json:"message_id" validate:"omitempty,max=200"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListConversations returns message threads, most recent first.
//
// @Summary List conversations
// @Tags Messaging
// @Produce json
// @Success 200 {array} conversation.Conversation
// @Router /api/conversations [get]
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.conversations.List(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list conversations")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list conversations", nil)
		return
	}
	respondJSON(w, http.StatusOK, convs)
}

// MarkConversationRead clears the unread counter of a thread.
//
// @Summary Mark conversation read
// @Tags Messaging
// @Produce json
// @Param phone path string true "Phone number"
// @Success 200 {object} conversation.Conversation
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /api/conversations/{phone}/read [post]
func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "phone"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid phone number", nil)
		return
	}
	phone, err := messaging.NormalizePhone(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	conv, err := h.conversations.MarkRead(r.Context(), phone)
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Conversation not found", nil)
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to mark conversation read")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to update conversation", nil)
	default:
		respondJSON(w, http.StatusOK, conv)
	}
}

// SendMessage delivers a message through the gateway, records it in the
// conversation and notifies dashboards. Storage and notification failures
// are logged; the message has already left at that point.
//
// @Summary Send a message
// @Tags Messaging
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Message"
// @Success 200 {object} SendMessageResponse
// @Failure 400 {object} APIResponse
// @Failure 502 {object} APIResponse "Gateway failure"
// @Failure 503 {object} APIResponse "Gateway not configured"
// @Security BearerAuth
// @Router /api/send-message [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.sender.Send(r.Context(), req.Phone, req.Message)
	switch {
	case errors.Is(err, messaging.ErrNotConfigured):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error(), nil)
		return
	case errors.Is(err, messaging.ErrInvalidPhone):
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("phone", messaging.MaskPhone(req.Phone)).Msg("Message send failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeBadGateway, "Messaging gateway failed to send the message", nil)
		return
	}

	h.record(r, conversation.Message{
		ID:     res.MessageID,
		Sender: conversation.SenderSalon,
		Text:   req.Message,
		Time:   res.SentAt,
		Phone:  res.Phone,
	})

	respondJSON(w, http.StatusOK, SendMessageResponse{
		Success:   true,
		MessageID: res.MessageID,
		Phone:     res.Phone,
		SentAt:    res.SentAt,
	})
}

// InboundMessageWebhook receives client messages from the gateway. When a
// webhook secret is configured the body must carry a valid HMAC-SHA256
// signature.
//
// @Summary Gateway inbound callback
// @Tags Messaging
// @Accept json
// @Produce json
// @Param X-Signature-256 header string false "sha256=<hex HMAC of the body>"
// @Param message body InboundMessage true "Inbound message"
// @Success 200 {object} object{status=string}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Router /api/webhooks/messages [post]
func (h *Handler) InboundMessageWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read body", nil)
		return
	}

	if secret := h.cfg.Messaging.WebhookSecret; secret != "" {
		if !messaging.VerifySignature(body, r.Header.Get(messaging.SignatureHeader), secret) {
			metrics.RecordMessage("inbound", errors.New("bad signature"))
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid webhook signature", nil)
			return
		}
	}

	var in InboundMessage
	if err := json.Unmarshal(body, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	phone, err := messaging.NormalizePhone(in.Phone)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	h.record(r, conversation.Message{
		ID:         in.MessageID,
		Sender:     conversation.SenderClient,
		Text:       in.Message,
		Time:       in.Timestamp,
		Phone:      phone,
		SenderName: in.SenderName,
	})
	metrics.RecordMessage("inbound", nil)
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// record stores msg and publishes the new-message event.
func (h *Handler) record(r *http.Request, msg conversation.Message) {
	if msg.Time.IsZero() {
		msg.Time = h.now().UTC()
	}
	senderName := msg.SenderName

	if conv, err := h.conversations.Append(r.Context(), msg); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("phone", messaging.MaskPhone(msg.Phone)).Msg("Failed to store message")
	} else if senderName == "" {
		senderName = conv.Client
	}

	notify.PublishAsync(r.Context(), h.notifier, notify.Event{
		Phone:      msg.Phone,
		Sender:     msg.Sender,
		SenderName: senderName,
		Message:    msg.Text,
		Time:       msg.Time,
	})
}
