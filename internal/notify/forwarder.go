// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package notify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
	"github.com/tomtom215/salondesk/internal/websocket"
)

// Broadcaster is the part of the WebSocket hub the forwarder needs.
type Broadcaster interface {
	BroadcastRaw(messageType string, payload []byte)
}

// Forwarder relays notification events to dashboard clients. It implements
// suture.Service.
type Forwarder struct {
	notifier *Notifier
	hub      Broadcaster
}

// NewForwarder creates a forwarder from notifier to hub.
func NewForwarder(notifier *Notifier, hub Broadcaster) *Forwarder {
	return &Forwarder{notifier: notifier, hub: hub}
}

// Serve subscribes and forwards until ctx is done or the subscription ends.
func (f *Forwarder) Serve(ctx context.Context) error {
	messages, err := f.notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", f.notifier.Topic(), err)
	}
	logger := logging.WithComponent("notify")
	logger.Info().Str("topic", f.notifier.Topic()).Str("transport", f.notifier.Transport()).Msg("Notification forwarder started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", f.notifier.Topic())
			}
			// Malformed payloads are acked and dropped; redelivery cannot fix them.
			if !json.Valid(msg.Payload) {
				logger.Warn().Str("uuid", msg.UUID).Msg("Dropping malformed notification")
				msg.Ack()
				continue
			}
			f.hub.BroadcastRaw(websocket.MessageTypeNewMessage, msg.Payload)
			metrics.NotificationsForwarded.Inc()
			msg.Ack()
		}
	}
}

func (f *Forwarder) String() string { return "notify-forwarder" }
