// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/salondesk/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // dashboard frames are tiny control messages
	sendBuffer     = 64

	// maxBadFrames is how many undecodable or unknown frames a tab may send
	// before it is disconnected.
	maxBadFrames = 5
)

// clientIDCounter orders clients by connection time for broadcasts.
var clientIDCounter atomic.Uint64

// Client is one dashboard tab connected to the hub. The hub only pushes
// notifications; the tab may send "ping" frames to check the link.
type Client struct {
	id        uint64
	hub       *Hub
	conn      *websocket.Conn
	send      chan Message
	badFrames int
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID returns the connection-order identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// pongData is the body of a pong frame. The dashboard uses it to show how
// fresh the realtime link is.
type pongData struct {
	ServerTime time.Time `json:"server_time"`
}

type errorData struct {
	Message string `json:"message"`
}

// handleFrame dispatches one frame from the tab and reports whether the
// connection should stay open.
func (c *Client) handleFrame(payload []byte) bool {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return c.reject("invalid JSON frame")
	}

	switch msg.Type {
	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong, Data: pongData{ServerTime: time.Now().UTC()}})
		return true
	default:
		return c.reject("unsupported message type: " + msg.Type)
	}
}

func (c *Client) reject(reason string) bool {
	c.badFrames++
	logging.Debug().Uint64("client_id", c.id).Int("bad_frames", c.badFrames).Msg(reason)
	if c.badFrames >= maxBadFrames {
		return false
	}
	c.reply(Message{Type: MessageTypeError, Data: errorData{Message: reason}})
	return true
}

// reply queues a frame for this tab only. It never blocks the read loop.
func (c *Client) reply(msg Message) {
	defer func() {
		// send is closed once the hub has dropped the client.
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
	}
}

// readPump reads control frames until the tab goes away, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("dashboard websocket closed unexpectedly")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !c.handleFrame(payload) {
			logging.Info().Uint64("client_id", c.id).Msg("closing dashboard websocket after repeated bad frames")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "too many invalid frames"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// writePump writes queued frames with go-json and sends keepalive pings.
// When the hub closes send it says goodbye with a going-away close frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "dashboard feed closed")
				if err := c.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start runs the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
