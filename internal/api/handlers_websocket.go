// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"net/http"

	"github.com/tomtom215/salondesk/internal/logging"
	ws "github.com/tomtom215/salondesk/internal/websocket"
)

// WebSocket upgrades the dashboard's realtime channel. Clients receive
// {"type":"new-message","data":{...}} for every stored message.
//
// @Summary Realtime updates
// @Tags Messaging
// @Success 101 "Switching Protocols"
// @Failure 503 {object} APIResponse
// @Router /api/ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
