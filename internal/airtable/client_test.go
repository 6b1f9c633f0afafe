// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package airtable

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/breaker"
	"github.com/tomtom215/salondesk/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.AirtableConfig{
		APIKey:            "key123",
		BaseID:            "appBASE",
		BaseURL:           srv.URL,
		RequestsPerSecond: 50,
		Timeout:           5 * time.Second,
	}
	return NewClient(cfg,
		WithRetry(3, time.Millisecond),
		WithBreaker(breaker.Settings{Name: "airtable-" + t.Name(), MinRequests: 4}),
	)
}

func TestNew_Unconfigured(t *testing.T) {
	t.Parallel()

	store := New(config.AirtableConfig{APIKey: "key"})
	if _, ok := store.(Unconfigured); !ok {
		t.Fatalf("New() = %T, want Unconfigured", store)
	}
	if _, err := store.List(context.Background(), "Table 1", ListOptions{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("List() error = %v, want ErrNotConfigured", err)
	}
	if err := store.Delete(context.Background(), "Table 1", "rec1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Delete() error = %v, want ErrNotConfigured", err)
	}

	if _, ok := New(config.AirtableConfig{APIKey: "k", BaseID: "b", BaseURL: "http://x"}).(*Client); !ok {
		t.Error("New() with credentials did not return *Client")
	}
}

func TestClient_ListPaginates(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer key123" {
			t.Errorf("Authorization = %q, want Bearer key123", got)
		}
		if r.URL.Path != "/appBASE/Table 1" {
			t.Errorf("path = %q, want /appBASE/Table 1", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("pageSize") != "100" {
			t.Errorf("pageSize = %q, want 100", q.Get("pageSize"))
		}
		if q.Get("sort[0][field]") != "Date" || q.Get("sort[0][direction]") != "desc" {
			t.Errorf("sort params = %v", q)
		}
		if q.Get("filterByFormula") != "{Status} = 'Completed'" {
			t.Errorf("filterByFormula = %q", q.Get("filterByFormula"))
		}

		w.Header().Set("Content-Type", "application/json")
		switch q.Get("offset") {
		case "":
			_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{"Name":"A"}},{"id":"rec2","fields":{"Name":"B"}}],"offset":"itr1"}`)
		case "itr1":
			_, _ = io.WriteString(w, `{"records":[{"id":"rec3","fields":{"Name":"C"}}]}`)
		default:
			t.Errorf("unexpected offset %q", q.Get("offset"))
		}
	})

	records, err := c.List(context.Background(), "Table 1", ListOptions{
		Formula: "{Status} = 'Completed'",
		Sort:    []SortField{{Field: "Date", Direction: "desc"}},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[2].ID != "rec3" || records[2].Fields["Name"] != "C" {
		t.Errorf("records[2] = %+v, want rec3/C", records[2])
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestClient_ListMaxRecords(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("maxRecords") != "1" {
			t.Errorf("maxRecords = %q, want 1", r.URL.Query().Get("maxRecords"))
		}
		_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{}},{"id":"rec2","fields":{}}],"offset":"more"}`)
	})

	records, err := c.List(context.Background(), "Clients", ListOptions{MaxRecords: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"id":"rec9","fields":{"Name":"Nine"}}`)
	})

	rec, err := c.Get(context.Background(), "Clients", "rec9")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ID != "rec9" {
		t.Errorf("rec.ID = %q, want rec9", rec.ID)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClient_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"errors":[{"error":"RATE_LIMIT_REACHED"}]}`)
	})

	_, err := c.Get(context.Background(), "Clients", "rec1")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Get() error = %v, want *UpstreamError", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", ue.Status)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", got)
	}
}

func TestClient_ErrorDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantType    string
		wantMessage string
	}{
		{"object error", 422, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"Date\" cannot accept the provided value"}}`, "INVALID_VALUE_FOR_COLUMN", `Field "Date" cannot accept the provided value`},
		{"string error", 403, `{"error":"NOT_AUTHORIZED"}`, "NOT_AUTHORIZED", ""},
		{"plain body", 500, "upstream exploded", "", "upstream exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Create(context.Background(), "Clients", map[string]any{"Name": "x"})
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("Create() error = %v, want *UpstreamError", err)
			}
			if ue.Status != tt.status || ue.Type != tt.wantType || ue.Message != tt.wantMessage {
				t.Errorf("UpstreamError = %+v, want status=%d type=%q message=%q", ue, tt.status, tt.wantType, tt.wantMessage)
			}
		})
	}
}

func TestClient_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"NOT_FOUND"}`)
	})

	if _, err := c.Get(context.Background(), "Clients", "recMissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(context.Background(), "Clients", "recMissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestClient_WritesSendTypecastFields(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if r.URL.Path != "/appBASE/Clients/rec1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body struct {
			Fields   map[string]any `json:"fields"`
			Typecast bool           `json:"typecast"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if !body.Typecast || body.Fields["Email"] != "a@b.c" {
			t.Errorf("body = %+v", body)
		}
		_, _ = io.WriteString(w, `{"id":"rec1","fields":{"Name":"Ann","Email":"a@b.c"}}`)
	})

	rec, err := c.Update(context.Background(), "Clients", "rec1", map[string]any{"Email": "a@b.c"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if rec.Fields["Name"] != "Ann" {
		t.Errorf("Fields[Name] = %v, want Ann", rec.Fields["Name"])
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, _ = c.Get(context.Background(), "Clients", "rec1")
	}
	before := calls.Load()

	_, err := c.Get(context.Background(), "Clients", "rec1")
	if !breaker.IsOpen(err) {
		t.Fatalf("Get() error = %v, want open circuit", err)
	}
	if calls.Load() != before {
		t.Error("request reached the server while the circuit was open")
	}
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":{"type":"INVALID_REQUEST","message":"bad"}}`)
	})

	for i := 0; i < 10; i++ {
		_, err := c.Get(context.Background(), "Clients", "rec1")
		if breaker.IsOpen(err) {
			t.Fatalf("call %d rejected by breaker", i)
		}
	}
}

func TestClient_ContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Get(ctx, "Clients", "rec1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff ignored context cancellation")
	}
}

func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	if got := string(readBodyForError(strings.NewReader("short"))); got != "short" {
		t.Errorf("readBodyForError(short) = %q", got)
	}
	long := strings.Repeat("x", maxErrorBodySize+100)
	got := readBodyForError(strings.NewReader(long))
	if !strings.HasSuffix(string(got), "(truncated)") {
		t.Error("long body not marked truncated")
	}
	if len(got) > maxErrorBodySize+32 {
		t.Errorf("len = %d, want about %d", len(got), maxErrorBodySize)
	}
}

func TestUpstreamError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *UpstreamError
		want string
	}{
		{&UpstreamError{Table: "Clients", Status: 422, Type: "INVALID", Message: "bad"}, "airtable Clients: INVALID: bad (status 422)"},
		{&UpstreamError{Table: "Clients", Status: 500, Message: "boom"}, "airtable Clients: boom (status 500)"},
		{&UpstreamError{Table: "Clients", Status: 502}, "airtable Clients: request failed with status 502"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
