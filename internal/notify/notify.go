// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package notify publishes new-message events and forwards them to the
// dashboard WebSocket hub.
//
// Events travel over Watermill. The default transport is an in-process
// gochannel; with NATS_URL (or NATS_EMBEDDED) set they go through core NATS
// so several API instances can share one notification stream.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
)

const (
	TransportChannel = "gochannel"
	TransportNATS    = "nats"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("notifier is closed")

// Event is the payload of a new-message notification.
type Event struct {
	Phone      string    `json:"phone"`
	Sender     string    `json:"sender"` // client or salon
	SenderName string    `json:"sender_name,omitempty"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}

// Publisher is implemented by *Notifier. Handlers depend on this so tests
// can record events without a transport.
type Publisher interface {
	PublishNewMessage(ctx context.Context, event Event) error
}

// Notifier owns the Watermill publisher and subscriber for one topic.
type Notifier struct {
	topic      string
	transport  string
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New builds a Notifier for cfg. natsURL overrides cfg.NATSURL and is used
// when an embedded server is running.
func New(cfg config.NotifyConfig, natsURL string) (*Notifier, error) {
	logger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("notify"))
	if natsURL == "" {
		natsURL = cfg.NATSURL
	}

	if natsURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return &Notifier{
			topic:      cfg.Topic,
			transport:  TransportChannel,
			publisher:  ch,
			subscriber: ch,
			logger:     logger,
		}, nil
	}

	pub, sub, err := newNATSPubSub(natsURL, logger)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		topic:      cfg.Topic,
		transport:  TransportNATS,
		publisher:  pub,
		subscriber: sub,
		logger:     logger,
	}, nil
}

func newNATSPubSub(url string, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("salondesk-notify"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	// Notifications are live UI hints; JetStream persistence would only
	// replay stale events to reconnecting dashboards.
	js := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   js,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     10 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        js,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	return pub, sub, nil
}

// Transport names the active transport for logs and metrics.
func (n *Notifier) Transport() string { return n.transport }

// Topic returns the topic events are published on.
func (n *Notifier) Topic() string { return n.topic }

// PublishNewMessage serializes and publishes event.
func (n *Notifier) PublishNewMessage(ctx context.Context, event Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("sender", event.Sender)

	err = n.publisher.Publish(n.topic, msg)
	metrics.RecordNotificationPublish(n.transport, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.topic, err)
	}
	return nil
}

// Subscribe returns the raw message stream for the notification topic.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return n.subscriber.Subscribe(ctx, n.topic)
}

// Close shuts down the publisher and subscriber. Safe to call twice.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true

	err := n.publisher.Close()
	// gochannel is both ends; closing it once is enough.
	if n.transport == TransportNATS {
		err = errors.Join(err, n.subscriber.Close())
	}
	return err
}

// PublishAsync publishes in the background and only logs failures. Callers
// that must not fail on notification errors (send-message, webhooks) use it.
func PublishAsync(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.PublishNewMessage(ctx, event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("sender", event.Sender).Msg("new-message notification not published")
		}
	}()
}
