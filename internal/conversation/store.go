// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package conversation keeps the message history shown on the dashboard's
// inbox, one conversation per client phone number, in BadgerDB.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/salondesk/internal/logging"
)

// Message senders.
const (
	SenderClient = "client"
	SenderSalon  = "salon"
)

const (
	keyPrefix = "conv:"

	// maxMessages bounds the history kept per conversation.
	maxMessages = 500

	// maxConflictRetries bounds read-modify-write retries on txn conflicts.
	maxConflictRetries = 5

	statusActive = "active"
)

// ErrNotFound is returned for an unknown phone number.
var ErrNotFound = errors.New("conversation not found")

// Message is one chat bubble.
type Message struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
	Phone  string    `json:"phone"`

	// SenderName is the client's display name from an inbound callback.
	SenderName string `json:"-"`
}

// Conversation is the thread with one phone number.
type Conversation struct {
	ID          string    `json:"id"`
	Client      string    `json:"client"`
	Phone       string    `json:"phone"`
	LastMessage string    `json:"lastMessage"`
	Time        time.Time `json:"time"`
	Status      string    `json:"status"`
	Unread      int       `json:"unread"`
	Tag         string    `json:"tag"`
	Messages    []Message `json:"messages"`
}

// Store persists conversations in BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store in dir. An empty dir keeps everything
// in memory for the process lifetime.
func Open(dir string) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("dir", dir).Bool("in_memory", dir == "").Msg("Conversation store opened")
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(phone string) []byte {
	return []byte(keyPrefix + phone)
}

// Append adds msg to the conversation for msg.Phone, creating it on first
// contact. Inbound (client) messages increment the unread counter.
func (s *Store) Append(ctx context.Context, msg Message) (*Conversation, error) {
	if msg.Phone == "" {
		return nil, fmt.Errorf("append message: phone is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}

	var conv *Conversation
	err := s.update(ctx, func(txn *badger.Txn) error {
		c, err := get(txn, msg.Phone)
		switch {
		case errors.Is(err, ErrNotFound):
			c = &Conversation{
				ID:     uuid.NewString(),
				Phone:  msg.Phone,
				Status: statusActive,
			}
		case err != nil:
			return err
		}

		if msg.SenderName != "" && (c.Client == "" || msg.Sender == SenderClient) {
			c.Client = msg.SenderName
		}
		if c.Client == "" {
			c.Client = msg.Phone
		}
		c.Messages = append(c.Messages, msg)
		if len(c.Messages) > maxMessages {
			c.Messages = c.Messages[len(c.Messages)-maxMessages:]
		}
		c.LastMessage = msg.Text
		c.Time = msg.Time
		if msg.Sender == SenderClient {
			c.Unread++
		}
		conv = c
		return put(txn, c)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns the conversation for phone.
func (s *Store) Get(_ context.Context, phone string) (*Conversation, error) {
	var conv *Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		c, err := get(txn, phone)
		conv = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns every conversation, most recent activity first.
func (s *Store) List(_ context.Context) ([]Conversation, error) {
	out := []Conversation{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c Conversation
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("decode conversation: %w", err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.After(out[j].Time)
		}
		return out[i].Phone < out[j].Phone
	})
	return out, nil
}

// MarkRead clears the unread counter for phone.
func (s *Store) MarkRead(ctx context.Context, phone string) (*Conversation, error) {
	var conv *Conversation
	err := s.update(ctx, func(txn *badger.Txn) error {
		c, err := get(txn, phone)
		if err != nil {
			return err
		}
		c.Unread = 0
		conv = c
		return put(txn, c)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent writers to the same conversation.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("conversation update: %w", err)
}

func get(txn *badger.Txn, phone string) (*Conversation, error) {
	item, err := txn.Get(key(phone))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	var c Conversation
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	}); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &c, nil
}

func put(txn *badger.Txn, c *Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := txn.Set(key(c.Phone), data); err != nil {
		return fmt.Errorf("set conversation: %w", err)
	}
	return nil
}
