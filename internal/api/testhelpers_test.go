// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/analytics"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/conversation"
	"github.com/tomtom215/salondesk/internal/messaging"
	"github.com/tomtom215/salondesk/internal/namecache"
	"github.com/tomtom215/salondesk/internal/notify"
)

// fakeSender returns a canned result or error.
type fakeSender struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (s *fakeSender) Send(_ context.Context, phone, body string) (messaging.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, body)
	if s.err != nil {
		return messaging.SendResult{}, s.err
	}
	normalized, err := messaging.NormalizePhone(phone)
	if err != nil {
		return messaging.SendResult{}, err
	}
	return messaging.SendResult{
		MessageID: "wamid.1",
		Phone:     normalized,
		SentAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events chan notify.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan notify.Event, 16)}
}

func (p *recordingPublisher) PublishNewMessage(_ context.Context, ev notify.Event) error {
	p.events <- ev
	return nil
}

func (p *recordingPublisher) next(t *testing.T) notify.Event {
	t.Helper()
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return notify.Event{}
	}
}

type testEnv struct {
	cfg       *config.Config
	store     *airtable.Memory
	convs     *conversation.Store
	sender    *fakeSender
	publisher *recordingPublisher
	handler   *Handler
	router    http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Airtable: config.AirtableConfig{
			APIKey:            "key",
			BaseID:            "app123",
			ClientsTable:      "Table 1",
			AppointmentsTable: "Appointments",
			ServicesTable:     "Services",
			EmployeesTable:    "Employees",
			AvailabilityTable: "Availability",
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

// newTestEnv builds a router over an in-memory store. mutate may adjust the
// config and deps before the handler is built.
func newTestEnv(t *testing.T, mutate func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	cfg := testConfig()
	store := airtable.NewMemory()
	convs, err := conversation.Open("")
	if err != nil {
		t.Fatalf("conversation.Open: %v", err)
	}
	t.Cleanup(func() { _ = convs.Close() })

	names := namecache.New(namecache.StoreFetcher{Store: store, Tables: map[namecache.Kind]string{
		namecache.KindClient:   cfg.Airtable.ClientsTable,
		namecache.KindService:  cfg.Airtable.ServicesTable,
		namecache.KindEmployee: cfg.Airtable.EmployeesTable,
	}})

	env := &testEnv{
		cfg:       cfg,
		store:     store,
		convs:     convs,
		sender:    &fakeSender{},
		publisher: newRecordingPublisher(),
	}
	deps := Deps{
		Config: cfg,
		Store:  store,
		Analytics: analytics.NewEngine(store, names, analytics.Tables{
			Appointments: cfg.Airtable.AppointmentsTable,
			Clients:      cfg.Airtable.ClientsTable,
			Services:     cfg.Airtable.ServicesTable,
			Employees:    cfg.Airtable.EmployeesTable,
		}),
		Sender:        env.sender,
		Conversations: convs,
		Notifier:      env.publisher,
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}

	env.handler = NewHandler(deps)
	env.handler.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	env.router = NewRouter(env.handler)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) APIResponse {
	t.Helper()
	expectStatus(t, rec, status)
	resp := decode[APIResponse](t, rec)
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error == nil || resp.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", resp.Error, code)
	}
	return resp
}
