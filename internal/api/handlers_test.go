// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/analytics"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/namecache"
)

func unconfigured(_ *config.Config, d *Deps) {
	d.Store = airtable.Unconfigured{}
	d.Analytics = analytics.NewEngine(airtable.Unconfigured{}, namecache.New(namecache.StoreFetcher{Store: airtable.Unconfigured{}}), analytics.Tables{
		Appointments: "Appointments", Clients: "Table 1", Services: "Services", Employees: "Employees",
	})
}

func TestRoot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["message"]; got != "Salon dashboard API" {
		t.Errorf("message = %q", got)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*config.Config, *Deps)
		airtable string
		key      bool
		base     bool
	}{
		{"configured", nil, "connected", true, true},
		{"missing key", func(c *config.Config, _ *Deps) { c.Airtable.APIKey = "" }, "not configured", false, true},
		{"missing both", func(c *config.Config, _ *Deps) {
			c.Airtable.APIKey = ""
			c.Airtable.BaseID = ""
		}, "not configured", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, tt.mutate)

			rec := env.do(t, http.MethodGet, "/api/health", nil, nil)
			expectStatus(t, rec, http.StatusOK)
			got := decode[HealthResponse](t, rec)
			if got.Status != "healthy" || got.Airtable != tt.airtable {
				t.Errorf("health = %+v", got)
			}
			if got.APIKeyConfigured != tt.key || got.BaseIDConfigured != tt.base {
				t.Errorf("configured flags = %v/%v, want %v/%v", got.APIKeyConfigured, got.BaseIDConfigured, tt.key, tt.base)
			}
			if got.TableName != "Table 1" {
				t.Errorf("table_name = %q", got.TableName)
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers not set")
			}
		})
	}
}

func TestListClients(t *testing.T) {
	t.Parallel()

	t.Run("mock data when unconfigured", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, unconfigured)

		for _, path := range []string{"/api/records", "/api/clients"} {
			rec := env.do(t, http.MethodGet, path, nil, nil)
			expectStatus(t, rec, http.StatusOK)
			got := decode[[]ClientRecord](t, rec)
			if len(got) != 2 || got[0].ID != "mock1" || got[1].Name != "Mike Chen" {
				t.Errorf("%s: got %+v", path, got)
			}
		}
	})

	t.Run("maps records with fallbacks", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		env.store.Put("Table 1",
			airtable.Record{ID: "rec1", CreatedTime: "2025-05-01T09:00:00.000Z", Fields: map[string]any{
				"Client Name": "Ana", "Total Visits": float64(3), "totalSpent": float64(120.5), "Tags": []any{"VIP"},
			}},
			airtable.Record{ID: "rec2", Fields: map[string]any{}},
		)

		rec := env.do(t, http.MethodGet, "/api/records", nil, nil)
		expectStatus(t, rec, http.StatusOK)
		got := decode[[]ClientRecord](t, rec)
		if len(got) != 2 {
			t.Fatalf("got %d clients", len(got))
		}
		if got[0].Name != "Ana" || got[0].TotalVisits != 3 || got[0].TotalSpent != 120.5 || got[0].CreatedAt != "2025-05-01T09:00:00.000Z" {
			t.Errorf("client[0] = %+v", got[0])
		}
		if len(got[0].Tags) != 1 || got[0].Tags[0] != "VIP" {
			t.Errorf("tags = %v", got[0].Tags)
		}
		if got[1].Name != "Unknown" || got[1].CreatedAt != "2026-03-01T12:00:00Z" || got[1].Tags == nil {
			t.Errorf("client[1] = %+v", got[1])
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		env.store.FailTable("Table 1", &airtable.UpstreamError{Table: "Table 1", Status: 422, Type: "INVALID_REQUEST", Message: "Unknown field name"})

		rec := env.do(t, http.MethodGet, "/api/records", nil, nil)
		resp := expectErrorCode(t, rec, http.StatusInternalServerError, ErrCodeInternalError)
		if resp.Error.Message != "Unknown field name" {
			t.Errorf("message = %q", resp.Error.Message)
		}
	})
}

func TestCreateClient(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := env.do(t, http.MethodPost, "/api/records", map[string]any{
			"name": "Lena", "email": "lena@example.com", "totalVisits": 0, "tags": []string{"New"},
		}, nil)
		expectStatus(t, rec, http.StatusCreated)
		got := decode[ClientRecord](t, rec)
		if got.ID == "" || got.Name != "Lena" || got.Email != "lena@example.com" {
			t.Errorf("client = %+v", got)
		}

		stored, err := env.store.Get(t.Context(), "Table 1", got.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored.Fields["Name"] != "Lena" || stored.Fields["Email"] != "lena@example.com" {
			t.Errorf("stored fields = %v", stored.Fields)
		}
		if _, ok := stored.Fields["Phone"]; ok {
			t.Error("absent field was written")
		}
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := env.do(t, http.MethodPost, "/api/clients", map[string]any{"email": "not-an-email"}, nil)
		expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := env.do(t, http.MethodPost, "/api/clients", "{", nil)
		expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
	})

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, unconfigured)

		rec := env.do(t, http.MethodPost, "/api/records", map[string]any{"name": "Lena"}, nil)
		resp := expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
		if resp.Error.Message != "Airtable not configured" {
			t.Errorf("message = %q", resp.Error.Message)
		}
	})
}

func TestUpdateAndDeleteClient(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Table 1", airtable.Record{ID: "rec1", Fields: map[string]any{"Name": "Ana", "Notes": "old"}})

	rec := env.do(t, http.MethodPut, "/api/clients/rec1", map[string]any{"notes": "new"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[ClientRecord](t, rec); got.Name != "Ana" || got.Notes != "new" {
		t.Errorf("updated = %+v", got)
	}

	rec = env.do(t, http.MethodPut, "/api/records/missing", map[string]any{"notes": "x"}, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = env.do(t, http.MethodDelete, "/api/records/rec1", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["message"]; got != "Record deleted successfully" {
		t.Errorf("message = %q", got)
	}

	rec = env.do(t, http.MethodDelete, "/api/records/rec1", nil, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestAppointments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Appointments",
		airtable.Record{ID: "a1", Fields: map[string]any{"Date": "2026-02-01", "Client": []any{"recC"}, "Service Name": "Facial", "Price": float64(80)}},
		airtable.Record{ID: "a2", Fields: map[string]any{"Date": "2026-02-10", "Client ID": "recD", "Status": "Completed"}},
	)

	rec := env.do(t, http.MethodGet, "/api/appointments", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[[]Appointment](t, rec)
	if len(got) != 2 || got[0].ID != "a2" {
		t.Fatalf("appointments = %+v, want newest first", got)
	}
	if got[1].ClientID != "recC" || got[1].Service != "Facial" || got[1].Price != 80 {
		t.Errorf("linked appointment = %+v", got[1])
	}

	rec = env.do(t, http.MethodPost, "/api/appointments", map[string]any{
		"client_id": "recC", "service_id": "recS", "date": "2026-03-05", "time": "10:30",
	}, nil)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[Appointment](t, rec)
	if created.Status != "Scheduled" || created.ClientID != "recC" || created.Date != "2026-03-05" {
		t.Errorf("created = %+v", created)
	}

	rec = env.do(t, http.MethodPost, "/api/appointments", map[string]any{
		"client_id": "recC", "service_id": "recS", "date": "05/03/2026",
	}, nil)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
}

func TestAppointments_EmptyWhenUnconfigured(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, unconfigured)

	for _, path := range []string{"/api/appointments", "/api/services", "/api/employee-availability", "/api/availability?date=2026-03-01"} {
		rec := env.do(t, http.MethodGet, path, nil, nil)
		expectStatus(t, rec, http.StatusOK)
		if body := rec.Body.String(); body != "[]\n" {
			t.Errorf("%s: body = %q, want []", path, body)
		}
	}
}

func TestAvailability(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Availability",
		airtable.Record{ID: "s2", Fields: map[string]any{"Date": "2026-03-01", "Start Time": "11:00", "Is Available": true}},
		airtable.Record{ID: "s1", Fields: map[string]any{"Date": "2026-03-01", "Start Time": "09:00", "Appointment": []any{"a9"}}},
		airtable.Record{ID: "s3", Fields: map[string]any{"Date": "2026-03-02", "Start Time": "08:00"}},
	)

	tests := []struct {
		name   string
		query  string
		status int
		ids    []string
	}{
		{"missing date", "", http.StatusBadRequest, nil},
		{"bad date", "?date=tomorrow", http.StatusBadRequest, nil},
		{"filters and sorts", "?date=2026-03-01", http.StatusOK, []string{"s1", "s2"}},
		{"no slots", "?date=2026-04-01", http.StatusOK, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/availability"+tt.query, nil, nil)
			if tt.status != http.StatusOK {
				expectErrorCode(t, rec, tt.status, ErrCodeValidation)
				return
			}
			expectStatus(t, rec, http.StatusOK)
			got := decode[[]AvailabilitySlot](t, rec)
			if len(got) != len(tt.ids) {
				t.Fatalf("got %d slots, want %d", len(got), len(tt.ids))
			}
			for i, id := range tt.ids {
				if got[i].ID != id {
					t.Errorf("slot[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
			if len(got) == 2 && (got[0].AppointmentID != "a9" || !got[1].IsAvailable) {
				t.Errorf("slots = %+v", got)
			}
		})
	}
}

func TestServices(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Services",
		airtable.Record{ID: "s2", Fields: map[string]any{"Name": "Massage", "Duration": float64(90), "Price": float64(120), "Category": "Body"}},
		airtable.Record{ID: "s1", Fields: map[string]any{"Name": "Facial", "Price": float64(60)}},
	)

	rec := env.do(t, http.MethodGet, "/api/services", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	services := decode[[]Service](t, rec)
	if len(services) != 2 || services[0].Name != "Facial" || services[0].Duration != 60 || services[1].Category != "Body" {
		t.Errorf("services = %+v", services)
	}

	rec = env.do(t, http.MethodGet, "/api/services-with-duration", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	durations := decode[[]ServiceDuration](t, rec)
	if len(durations) != 2 || durations[1].Duration != 90 || durations[1].Price != 120 {
		t.Errorf("durations = %+v", durations)
	}
}

func TestTherapistsByService(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Employees",
		airtable.Record{ID: "e1", Fields: map[string]any{"Full Name": "Jessica", "Expertise": []any{"Massage", "Facial"}, "Status": "Active"}},
		airtable.Record{ID: "e2", Fields: map[string]any{"Full Name": "Tom", "Expertise": []any{"Massage"}, "Status": "Inactive"}},
		airtable.Record{ID: "e3", Fields: map[string]any{"Full Name": "Ava", "Expertise": []any{"massage"}}},
		airtable.Record{ID: "e4", Fields: map[string]any{"Full Name": "Zoe", "Expertise": []any{"Hot Stone Massage"}}},
	)

	rec := env.do(t, http.MethodGet, "/api/therapists-by-service/Massage", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[[]Employee](t, rec)
	if len(got) != 2 || got[0].FullName != "Ava" || got[1].FullName != "Jessica" {
		t.Errorf("therapists = %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/therapists-by-service/Pedicure", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q", body)
	}
}

func TestTherapistsByService_EscapedName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.store.Put("Employees",
		airtable.Record{ID: "e1", Fields: map[string]any{"Full Name": "Mia", "Expertise": []any{"Hair Cut & Color"}, "Status": "Active"}},
		airtable.Record{ID: "e2", Fields: map[string]any{"Full Name": "Lena", "Expertise": []any{"Nails/Gel"}, "Status": "Active"}},
	)

	tests := []struct {
		path string
		want string
	}{
		{"/api/therapists-by-service/Hair%20Cut%20%26%20Color", "Mia"},
		{"/api/therapists-by-service/Nails%2FGel", "Lena"},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, tt.path, nil, nil)
		expectStatus(t, rec, http.StatusOK)
		got := decode[[]Employee](t, rec)
		if len(got) != 1 || got[0].FullName != tt.want {
			t.Errorf("GET %s = %+v, want [%s]", tt.path, got, tt.want)
		}
	}
}

func TestEmployees(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/employees", map[string]any{"email": "x@example.com"}, nil)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)

	rec = env.do(t, http.MethodPost, "/api/employees", map[string]any{
		"full_name":         "Jessica Wong",
		"availability_days": []string{"Monday", "Friday"},
		"profile_picture":   "https://cdn.example.com/j.png",
	}, nil)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[Employee](t, rec)
	if created.Status != "Active" || created.ProfilePicture != "https://cdn.example.com/j.png" || len(created.AvailabilityDays) != 2 {
		t.Errorf("created = %+v", created)
	}

	rec = env.do(t, http.MethodPut, "/api/employees/"+created.ID, map[string]any{"availability_days": []string{"Funday"}}, nil)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)

	rec = env.do(t, http.MethodPut, "/api/employees/"+created.ID, map[string]any{"profile_picture": "not a url"}, nil)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)

	rec = env.do(t, http.MethodPut, "/api/employees/"+created.ID, map[string]any{"status": "Inactive", "profile_picture": ""}, nil)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[Employee](t, rec)
	if updated.Status != "Inactive" || updated.ProfilePicture != "" || updated.FullName != "Jessica Wong" {
		t.Errorf("updated = %+v", updated)
	}

	rec = env.do(t, http.MethodGet, "/api/employees/"+created.ID, nil, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodDelete, "/api/employees/"+created.ID, nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["message"]; got != "Employee deleted successfully" {
		t.Errorf("message = %q", got)
	}

	rec = env.do(t, http.MethodGet, "/api/employees/"+created.ID, nil, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestAnalytics(t *testing.T) {
	t.Parallel()

	t.Run("computes", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		env.store.Put("Services", airtable.Record{ID: "recS", Fields: map[string]any{"Name": "Facial"}})

		rec := env.do(t, http.MethodGet, "/api/analytics?range=bogus", nil, nil)
		expectStatus(t, rec, http.StatusOK)
		got := decode[analytics.Result](t, rec)
		if got.Range != analytics.RangeMonth {
			t.Errorf("range = %q, want month", got.Range)
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, unconfigured)

		rec := env.do(t, http.MethodGet, "/api/analytics", nil, nil)
		expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		env.store.FailTable("Employees", errors.New("connection reset"))

		rec := env.do(t, http.MethodGet, "/api/analytics?range=week", nil, nil)
		expectErrorCode(t, rec, http.StatusInternalServerError, ErrCodeInternalError)
	})

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		env.store.FailTable("Appointments", airtable.ErrNotFound)

		rec := env.do(t, http.MethodGet, "/api/analytics?range=week", nil, nil)
		expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	})
}

func TestListEndpoints_MissingTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table string
		path  string
	}{
		{"clients", "Table 1", "/api/clients"},
		{"appointments", "Appointments", "/api/appointments"},
		{"services", "Services", "/api/services"},
		{"employees", "Employees", "/api/employee-availability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			env.store.FailTable(tt.table, airtable.ErrNotFound)

			rec := env.do(t, http.MethodGet, tt.path, nil, nil)
			expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
		})
	}
}
