// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package namecache resolves linked-record IDs (clients, services,
// employees) to display names for the analytics breakdowns.
//
// Entries live for the process lifetime and are never invalidated: within
// one run an ID always resolves to the name seen on its first successful
// lookup. Failed lookups return a placeholder that is not stored.
package namecache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
)

// Kind is the linked table an ID belongs to.
type Kind string

const (
	KindClient   Kind = "client"
	KindService  Kind = "service"
	KindEmployee Kind = "employee"
)

// Title returns the capitalized kind used in placeholders.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Resolver is what the analytics engine depends on.
type Resolver interface {
	GetOrFetch(ctx context.Context, kind Kind, id string) string
}

// Fetcher loads the fields of one linked record.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, id string) (map[string]any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, kind Kind, id string) (map[string]any, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, kind Kind, id string) (map[string]any, error) {
	return f(ctx, kind, id)
}

// StoreFetcher fetches from the record store, one table per kind.
type StoreFetcher struct {
	Store  airtable.Store
	Tables map[Kind]string
}

// Fetch implements Fetcher.
func (s StoreFetcher) Fetch(ctx context.Context, kind Kind, id string) (map[string]any, error) {
	rec, err := s.Store.Get(ctx, s.Tables[kind], id)
	if err != nil {
		return nil, err
	}
	return rec.Fields, nil
}

type key struct {
	kind Kind
	id   string
}

// Cache is a Resolver backed by a mutex-protected map. Concurrent misses for
// the same key share one fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]string
	group   singleflight.Group
	fetcher Fetcher
	name    string
}

// fetchTimeout bounds a shared lookup once it is detached from the caller.
const fetchTimeout = 30 * time.Second

// New creates an empty cache that fills itself through fetcher.
func New(fetcher Fetcher) *Cache {
	return &Cache{
		entries: make(map[key]string),
		fetcher: fetcher,
		name:    "names",
	}
}

// GetOrFetch returns the display name for (kind, id). It never fails: any
// fetch error yields Placeholder(kind, id).
func (c *Cache) GetOrFetch(ctx context.Context, kind Kind, id string) string {
	k := key{kind: kind, id: id}

	c.mu.RLock()
	name, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		metrics.CacheHits.WithLabelValues(c.name, string(kind)).Inc()
		return name
	}
	metrics.CacheMisses.WithLabelValues(c.name, string(kind)).Inc()

	v, err, _ := c.group.Do(string(kind)+"\x00"+id, func() (any, error) {
		// A concurrent caller may have stored it between our read and Do.
		c.mu.RLock()
		existing, ok := c.entries[k]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		// The fetch is shared by every waiter, so one caller going away must
		// not cancel it for the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		fields, err := c.fetcher.Fetch(fetchCtx, kind, id)
		if err != nil {
			return nil, err
		}
		resolved, ok := DisplayName(fields)
		if !ok {
			resolved = Placeholder(kind, id)
		}
		c.store(k, resolved)
		return resolved, nil
	})
	if err != nil {
		metrics.NameResolutionFailures.WithLabelValues(string(kind)).Inc()
		logging.Ctx(ctx).Debug().Err(err).Str("kind", string(kind)).Str("id", id).Msg("Name lookup failed, using placeholder")
		return Placeholder(kind, id)
	}
	return v.(string)
}

// store inserts unless an entry already exists (first write wins).
func (c *Cache) store(k key, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[k]; exists {
		return
	}
	c.entries[k] = name
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Seed stores names from records that were already fetched, so the
// analytics pass does not look each one up again. Existing entries are
// kept. It returns the number of new entries.
func (c *Cache) Seed(kind Kind, records []airtable.Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, rec := range records {
		k := key{kind: kind, id: rec.ID}
		if _, exists := c.entries[k]; exists || rec.ID == "" {
			continue
		}
		name, ok := DisplayName(rec.Fields)
		if !ok {
			continue
		}
		c.entries[k] = name
		added++
	}
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	return added
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// nameFields is the full-name fallback chain shared by every kind.
var nameFields = []string{"Full Name", "Name", "Service Name"}

// DisplayName extracts a display name from record fields: the first
// full-name field, else "First Name Last Name".
func DisplayName(fields map[string]any) (string, bool) {
	if name := strings.TrimSpace(airtable.String(fields, nameFields...)); name != "" {
		return name, true
	}
	first := strings.TrimSpace(airtable.String(fields, "First Name"))
	last := strings.TrimSpace(airtable.String(fields, "Last Name"))
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full, true
	}
	return "", false
}

// Placeholder is the name used when a record cannot be resolved:
// "{Kind} {last 4 characters of id}".
func Placeholder(kind Kind, id string) string {
	suffix := id
	if len(id) > 4 {
		suffix = id[len(id)-4:]
	}
	return kind.Title() + " " + suffix
}
