// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package analytics computes the dashboard's business analytics: revenue,
// appointment status counts, client retention and the top service and
// employee breakdowns for a reporting window.
//
// Every request fetches a fresh snapshot of the appointment table and
// recomputes from scratch. Nothing is persisted.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
	"github.com/tomtom215/salondesk/internal/namecache"
)

// Tables names the record store tables the engine reads.
type Tables struct {
	Appointments string
	Clients      string
	Services     string
	Employees    string
}

// seeder is implemented by resolvers that accept already-fetched records.
type seeder interface {
	Seed(kind namecache.Kind, records []airtable.Record) int
}

// Engine fetches a snapshot and runs Compute.
type Engine struct {
	store  airtable.Store
	names  namecache.Resolver
	tables Tables
	now    func() time.Time
}

// NewEngine creates an engine over store. names resolves linked IDs.
func NewEngine(store airtable.Store, names namecache.Resolver, tables Tables) *Engine {
	return &Engine{store: store, names: names, tables: tables, now: time.Now}
}

// Analytics computes the result for the given range selector. Any failed
// list call fails the whole request; there is no partial result.
func (e *Engine) Analytics(ctx context.Context, rangeParam string) (*Result, error) {
	start := time.Now()
	r := ParseRange(rangeParam)

	var appts, clients, services, employees []airtable.Record
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(table string, dst *[]airtable.Record) {
		g.Go(func() error {
			records, err := e.store.List(gctx, table, airtable.ListOptions{})
			if err != nil {
				return fmt.Errorf("list %s: %w", table, err)
			}
			*dst = records
			return nil
		})
	}
	fetch(e.tables.Appointments, &appts)
	fetch(e.tables.Clients, &clients)
	fetch(e.tables.Services, &services)
	fetch(e.tables.Employees, &employees)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s, ok := e.names.(seeder); ok {
		s.Seed(namecache.KindClient, clients)
		s.Seed(namecache.KindService, services)
		s.Seed(namecache.KindEmployee, employees)
	}

	parsed := make([]Appointment, len(appts))
	for i, rec := range appts {
		parsed[i] = FromRecord(rec)
	}

	res := Compute(ctx, parsed, r, WindowFor(r, e.now()), e.names)

	elapsed := time.Since(start)
	metrics.RecordAnalytics(string(r), len(parsed), elapsed)
	logging.Ctx(ctx).Debug().
		Str("range", string(r)).
		Int("appointments", len(parsed)).
		Int("in_window", res.Appointments.Total).
		Dur("duration", elapsed).
		Msg("Computed analytics")
	return res, nil
}
