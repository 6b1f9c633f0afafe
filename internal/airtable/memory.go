// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package airtable

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// Memory is an in-process Store used by tests and local demos. It supports
// the `{Field} = 'value'` formula form and sorting by string or number.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Record
	errs   map[string]error
	nextID int

	calls atomic.Int64
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Client)(nil)
	_ Store = Unconfigured{}
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{tables: map[string][]Record{}, errs: map[string]error{}}
}

// Put replaces the contents of table.
func (m *Memory) Put(table string, records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Record, len(records))
	copy(cp, records)
	m.tables[table] = cp
}

// FailTable makes every call on table return err (nil clears it).
func (m *Memory) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, table)
		return
	}
	m.errs[table] = err
}

// Calls returns how many Store methods have been invoked.
func (m *Memory) Calls() int64 {
	return m.calls.Load()
}

var equalsFormula = regexp.MustCompile(`^\{([^}]+)\}\s*=\s*'((?:[^'\\]|\\.)*)'$`)

// List implements Store.
func (m *Memory) List(_ context.Context, table string, opts ListOptions) ([]Record, error) {
	m.calls.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs[table]; err != nil {
		return nil, err
	}

	var field, value string
	if match := equalsFormula.FindStringSubmatch(opts.Formula); match != nil {
		field, value = match[1], unescapeFormula(match[2])
	}

	out := make([]Record, 0, len(m.tables[table]))
	for _, rec := range m.tables[table] {
		if field != "" && String(rec.Fields, field) != value {
			continue
		}
		out = append(out, rec)
	}

	for i := len(opts.Sort) - 1; i >= 0; i-- {
		s := opts.Sort[i]
		sort.SliceStable(out, func(a, b int) bool {
			if s.Direction == "desc" {
				return lessField(out[b].Fields, out[a].Fields, s.Field)
			}
			return lessField(out[a].Fields, out[b].Fields, s.Field)
		})
	}
	if opts.MaxRecords > 0 && len(out) > opts.MaxRecords {
		out = out[:opts.MaxRecords]
	}
	return out, nil
}

func lessField(a, b map[string]any, field string) bool {
	na, okA := NumberOK(a, field)
	nb, okB := NumberOK(b, field)
	if okA && okB {
		return na < nb
	}
	return String(a, field) < String(b, field)
}

func unescapeFormula(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, table, id string) (Record, error) {
	m.calls.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs[table]; err != nil {
		return Record{}, err
	}
	for _, rec := range m.tables[table] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, table string, fields map[string]any) (Record, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[table]; err != nil {
		return Record{}, err
	}
	m.nextID++
	rec := Record{ID: "rec" + strconv.Itoa(m.nextID), Fields: cloneFields(fields)}
	m.tables[table] = append(m.tables[table], rec)
	return rec, nil
}

// Update implements Store.
func (m *Memory) Update(_ context.Context, table, id string, fields map[string]any) (Record, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[table]; err != nil {
		return Record{}, err
	}
	for i, rec := range m.tables[table] {
		if rec.ID != id {
			continue
		}
		merged := cloneFields(rec.Fields)
		for k, v := range fields {
			merged[k] = v
		}
		m.tables[table][i].Fields = merged
		return m.tables[table][i], nil
	}
	return Record{}, ErrNotFound
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, table, id string) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[table]; err != nil {
		return err
	}
	records := m.tables[table]
	for i, rec := range records {
		if rec.ID == id {
			m.tables[table] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
