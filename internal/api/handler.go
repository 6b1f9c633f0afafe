// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package api serves the dashboard's HTTP surface.
//
// Handlers are split by area:
//   - handlers_core.go: root and health
//   - handlers_clients.go: client records (/api/records, /api/clients)
//   - handlers_booking.go: appointments, availability, services
//   - handlers_employees.go: staff records
//   - handlers_analytics.go: the analytics report
//   - handlers_messaging.go: conversations, outbound messages, gateway webhook
//   - handlers_websocket.go: realtime dashboard channel
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/analytics"
	"github.com/tomtom215/salondesk/internal/auth"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/conversation"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/messaging"
	"github.com/tomtom215/salondesk/internal/notify"
	ws "github.com/tomtom215/salondesk/internal/websocket"
)

// Analyzer computes the analytics report.
type Analyzer interface {
	Analytics(ctx context.Context, rangeParam string) (*analytics.Result, error)
}

// ConversationStore keeps message history.
type ConversationStore interface {
	Append(ctx context.Context, msg conversation.Message) (*conversation.Conversation, error)
	List(ctx context.Context) ([]conversation.Conversation, error)
	MarkRead(ctx context.Context, phone string) (*conversation.Conversation, error)
}

// Deps are the collaborators a Handler needs. Store, Analytics and
// Conversations are required; the rest may be nil.
type Deps struct {
	Config        *config.Config
	Store         airtable.Store
	Analytics     Analyzer
	Sender        messaging.Sender
	Conversations ConversationStore
	Notifier      notify.Publisher
	Hub           *ws.Hub
	JWT           *auth.JWTManager
}

// Handler holds the API dependencies.
type Handler struct {
	cfg           *config.Config
	store         airtable.Store
	analytics     Analyzer
	sender        messaging.Sender
	conversations ConversationStore
	notifier      notify.Publisher
	hub           *ws.Hub
	jwt           *auth.JWTManager
	now           func() time.Time
}

// NewHandler builds a Handler from deps.
func NewHandler(deps Deps) *Handler {
	sender := deps.Sender
	if sender == nil {
		sender = messaging.Unconfigured{}
	}
	return &Handler{
		cfg:           deps.Config,
		store:         deps.Store,
		analytics:     deps.Analytics,
		sender:        sender,
		conversations: deps.Conversations,
		notifier:      deps.Notifier,
		hub:           deps.Hub,
		jwt:           deps.JWT,
		now:           time.Now,
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects requests without an Origin header: browsers
// always send one, and accepting its absence would bypass CORS.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and caps length.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		out = append(out, r)
		if len(out) == maxLen {
			break
		}
	}
	return string(out)
}
