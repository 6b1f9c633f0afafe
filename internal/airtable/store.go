// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package airtable is the record store: a typed client for the Airtable REST
// API plus the field helpers used to read loosely typed record fields.
//
// Handlers and the analytics engine depend on the Store interface only, so
// tests substitute an in-memory implementation.
package airtable

import (
	"context"
	"errors"
	"fmt"
)

// Record is one Airtable row.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// SortField orders a List call. Direction is "asc" or "desc".
type SortField struct {
	Field     string
	Direction string
}

// ListOptions narrows a List call.
type ListOptions struct {
	Formula    string // filterByFormula
	Sort       []SortField
	MaxRecords int
	View       string
	Fields     []string
}

// Store is the record store seen by the rest of the application.
type Store interface {
	// List returns every record matching opts, following pagination.
	List(ctx context.Context, table string, opts ListOptions) ([]Record, error)
	Get(ctx context.Context, table, id string) (Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (Record, error)
	// Update merges fields into the record (PATCH semantics).
	Update(ctx context.Context, table, id string, fields map[string]any) (Record, error)
	Delete(ctx context.Context, table, id string) error
}

var (
	// ErrNotConfigured is returned by every Store call when credentials are missing.
	ErrNotConfigured = errors.New("Airtable not configured") //nolint:staticcheck // user-facing message

	// ErrNotFound is returned for a 404 from Airtable.
	ErrNotFound = errors.New("record not found")
)

// UpstreamError is a non-2xx answer from Airtable.
type UpstreamError struct {
	Table   string
	Status  int
	Type    string
	Message string
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Message != "" && e.Type != "":
		return fmt.Sprintf("airtable %s: %s: %s (status %d)", e.Table, e.Type, e.Message, e.Status)
	case e.Message != "":
		return fmt.Sprintf("airtable %s: %s (status %d)", e.Table, e.Message, e.Status)
	default:
		return fmt.Sprintf("airtable %s: request failed with status %d", e.Table, e.Status)
	}
}

// Unconfigured is the Store used when no API key or base ID is set.
type Unconfigured struct{}

func (Unconfigured) List(context.Context, string, ListOptions) ([]Record, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Get(context.Context, string, string) (Record, error) {
	return Record{}, ErrNotConfigured
}

func (Unconfigured) Create(context.Context, string, map[string]any) (Record, error) {
	return Record{}, ErrNotConfigured
}

func (Unconfigured) Update(context.Context, string, string, map[string]any) (Record, error) {
	return Record{}, ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string, string) error {
	return ErrNotConfigured
}
