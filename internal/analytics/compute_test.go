// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package analytics

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/namecache"
)

// fixedNow is a Saturday; the week window is 2024-01-13..2024-01-20.
var fixedNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.Local)

// mapResolver resolves from a fixed map and counts lookups.
type mapResolver struct {
	mu    sync.Mutex
	names map[string]string
	calls int
}

func (m *mapResolver) GetOrFetch(_ context.Context, kind namecache.Kind, id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if name, ok := m.names[id]; ok {
		return name
	}
	return namecache.Placeholder(kind, id)
}

func appt(id, date, status string, price float64, client, service, employee string) Appointment {
	a := Appointment{
		ID:         id,
		Status:     status,
		Price:      decimal.NewFromFloat(price),
		ClientID:   client,
		ServiceID:  service,
		EmployeeID: employee,
	}
	a.Date, a.HasDate = ParseDate(date)
	return a
}

func compute(t *testing.T, appts []Appointment, r Range) *Result {
	t.Helper()
	names := &mapResolver{names: map[string]string{
		"svcCut": "Hair Cut", "svcColor": "Color", "svcBeard": "Beard Trim",
		"empJess": "Jessica", "empTom": "Tom",
	}}
	return Compute(context.Background(), appts, r, WindowFor(r, fixedNow), names)
}

func TestCompute_WeekScenario(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-18", StatusCompleted, 100, "c1", "svcCut", "empJess"),
		appt("a2", "2024-01-19", StatusScheduled, 80, "c2", "svcCut", "empJess"),
		appt("a3", "2024-01-17", StatusCancelled, 60, "c3", "svcColor", "empTom"),
	}, RangeWeek)

	a := res.Appointments
	if a.Total != 3 || a.Completed != 1 || a.Scheduled != 1 || a.Cancelled != 1 {
		t.Errorf("appointments = %+v, want total=3 completed=1 scheduled=1 cancelled=1", a)
	}
	if res.Revenue.Total != 100 {
		t.Errorf("revenue.total = %v, want 100", res.Revenue.Total)
	}
	if a.CompletionRate != 33.33 {
		t.Errorf("completion_rate = %v, want 33.33", a.CompletionRate)
	}
	if res.Revenue.AvgAppointmentValue != 100 {
		t.Errorf("avg_appointment_value = %v, want 100", res.Revenue.AvgAppointmentValue)
	}
	if res.StartDate != "2024-01-13" || res.EndDate != "2024-01-20" || res.Range != RangeWeek {
		t.Errorf("window = %s %s..%s", res.Range, res.StartDate, res.EndDate)
	}

	if len(res.Services) != 2 {
		t.Fatalf("len(services) = %d, want 2", len(res.Services))
	}
	cut := res.Services[0]
	if cut.Name != "Hair Cut" || cut.Bookings != 2 || cut.Revenue != 100 {
		t.Errorf("services[0] = %+v, want Hair Cut bookings=2 revenue=100", cut)
	}
	if res.Services[1].Name != "Color" || res.Services[1].Revenue != 0 {
		t.Errorf("services[1] = %+v, want Color revenue=0", res.Services[1])
	}

	jess := res.Employees[0]
	if jess.Name != "Jessica" || jess.Appointments != 2 || jess.Revenue != 100 || jess.Utilization != 30 {
		t.Errorf("employees[0] = %+v, want Jessica appts=2 revenue=100 utilization=30", jess)
	}
}

func TestCompute_StatusCountersBoundedByTotal(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-15", StatusCompleted, 50, "", "", ""),
		appt("a2", "2024-01-15", "No Show", 50, "", "", ""),
		appt("a3", "2024-01-16", "completed", 50, "", "", ""),
		appt("a4", "2024-01-16", StatusCancelled, 50, "", "", ""),
	}, RangeWeek)

	a := res.Appointments
	if a.Completed+a.Scheduled+a.Cancelled > a.Total {
		t.Errorf("counters %d+%d+%d exceed total %d", a.Completed, a.Scheduled, a.Cancelled, a.Total)
	}
	if a.Total != 4 || a.Completed != 1 {
		t.Errorf("total=%d completed=%d, want 4 and 1", a.Total, a.Completed)
	}
	if sum := a.CompletionRate + a.CancellationRate; sum > 100 || sum != 50 {
		t.Errorf("completion+cancellation = %v, want 50", sum)
	}
	if res.Revenue.Total != 50 {
		t.Errorf("revenue = %v, want 50 (only exact Completed counts)", res.Revenue.Total)
	}
}

func TestCompute_RatesSumTo100WithKnownStatuses(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-15", StatusCompleted, 10, "", "", ""),
		appt("a2", "2024-01-15", StatusCompleted, 10, "", "", ""),
		appt("a3", "2024-01-16", StatusCancelled, 10, "", "", ""),
		appt("a4", "2024-01-16", StatusCancelled, 10, "", "", ""),
	}, RangeWeek)

	a := res.Appointments
	if a.CompletionRate+a.CancellationRate != 100 {
		t.Errorf("completion+cancellation = %v, want 100", a.CompletionRate+a.CancellationRate)
	}
}

func TestCompute_EmptyWindow(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2023-01-01", StatusCompleted, 100, "c1", "svcCut", "empJess"),
	}, RangeWeek)

	if res.Appointments.Total != 0 || res.Appointments.CompletionRate != 0 || res.Appointments.CancellationRate != 0 {
		t.Errorf("appointments = %+v, want zeros", res.Appointments)
	}
	if res.Revenue.AvgAppointmentValue != 0 || res.Revenue.Growth != 0 {
		t.Errorf("revenue = %+v, want zeros", res.Revenue)
	}
	if res.Services == nil || res.Employees == nil {
		t.Error("services/employees must be empty lists, not null")
	}
}

func TestCompute_AverageTimesCompletedIsRevenue(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-14", StatusCompleted, 33.33, "", "", ""),
		appt("a2", "2024-01-15", StatusCompleted, 45.5, "", "", ""),
		appt("a3", "2024-01-16", StatusCompleted, 19.99, "", "", ""),
		appt("a4", "2024-01-16", StatusScheduled, 500, "", "", ""),
	}, RangeWeek)

	got := res.Revenue.AvgAppointmentValue * float64(res.Appointments.Completed)
	if math.Abs(got-res.Revenue.Total) > 1e-9 {
		t.Errorf("avg*completed = %v, want %v", got, res.Revenue.Total)
	}
	if res.Revenue.Total != 98.82 {
		t.Errorf("revenue.total = %v, want 98.82", res.Revenue.Total)
	}
}

func TestCompute_AverageIsNotRounded(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-14", StatusCompleted, 50, "", "", ""),
		appt("a2", "2024-01-15", StatusCompleted, 25, "", "", ""),
		appt("a3", "2024-01-16", StatusCompleted, 25, "", "", ""),
	}, RangeWeek)

	if res.Revenue.Total != 100 {
		t.Fatalf("revenue.total = %v, want 100", res.Revenue.Total)
	}
	got := res.Revenue.AvgAppointmentValue * 3
	if math.Abs(got-100) > 1e-9 {
		t.Errorf("avg*completed = %v (avg %v), want 100", got, res.Revenue.AvgAppointmentValue)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()

	var appts []Appointment
	for i := 0; i < 40; i++ {
		svc := fmt.Sprintf("svc%02d", i%13)
		emp := fmt.Sprintf("emp%02d", i%11)
		appts = append(appts, appt(fmt.Sprintf("a%d", i), fmt.Sprintf("2024-01-%02d", 1+i%20), StatusCompleted, 25, fmt.Sprintf("c%d", i%7), svc, emp))
	}

	first, err := json.Marshal(compute(t, appts, RangeMonth))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(compute(t, appts, RangeMonth))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d produced different JSON:\n%s\n%s", i, first, again)
		}
	}
}

func TestCompute_Retention(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		// c1: first visit last year, back this week -> returning
		appt("a1", "2023-06-01", StatusCompleted, 10, "c1", "", ""),
		appt("a2", "2024-01-18", StatusScheduled, 10, "c1", "", ""),
		// c2: only appointment in window -> new
		appt("a3", "2024-01-19", StatusCancelled, 10, "c2", "", ""),
		// c3: old client, nothing in window -> neither
		appt("a4", "2023-12-01", StatusCompleted, 10, "c3", "", ""),
		// c4: first visit in window plus an unparseable row -> new
		appt("a5", "2024-01-14", StatusCompleted, 10, "c4", "", ""),
		appt("a6", "someday", StatusCompleted, 10, "c4", "", ""),
		// c5: only future appointment -> neither
		appt("a7", "2024-03-01", StatusScheduled, 10, "c5", "", ""),
	}, RangeWeek)

	c := res.Clients
	if c.NewInPeriod != 2 || c.Returning != 1 {
		t.Errorf("clients = %+v, want new=2 returning=1", c)
	}
	if c.NewInPeriod+c.Returning != c.Total {
		t.Errorf("new+returning = %d, want total %d", c.NewInPeriod+c.Returning, c.Total)
	}
	want := math.Round(float64(c.Returning)/float64(c.Total)*100*100) / 100
	if c.RetentionRate != want {
		t.Errorf("retention_rate = %v, want %v", c.RetentionRate, want)
	}
}

func TestCompute_OnlyAppointmentInWindowIsNew(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "2024-01-15", StatusCompleted, 10, "solo", "", ""),
	}, RangeWeek)

	if res.Clients.NewInPeriod != 1 || res.Clients.Returning != 0 {
		t.Errorf("clients = %+v, want new=1 returning=0", res.Clients)
	}
	if res.Clients.RetentionRate != 0 {
		t.Errorf("retention_rate = %v, want 0", res.Clients.RetentionRate)
	}
}

func TestCompute_ISOSuffixDateMatchesPlainDate(t *testing.T) {
	t.Parallel()

	plain := compute(t, []Appointment{appt("a1", "2024-01-15", StatusCompleted, 70, "c1", "", "")}, RangeWeek)
	iso := compute(t, []Appointment{appt("a1", "2024-01-15T00:00:00Z", StatusCompleted, 70, "c1", "", "")}, RangeWeek)

	if plain.Appointments.Total != 1 || iso.Appointments.Total != 1 {
		t.Errorf("totals = %d and %d, want 1 and 1", plain.Appointments.Total, iso.Appointments.Total)
	}
	if plain.Revenue != iso.Revenue {
		t.Errorf("revenue differs: %+v vs %+v", plain.Revenue, iso.Revenue)
	}
}

func TestCompute_UnparseableDatesExcluded(t *testing.T) {
	t.Parallel()

	res := compute(t, []Appointment{
		appt("a1", "", StatusCompleted, 100, "c1", "svcCut", "empJess"),
		appt("a2", "tomorrow", StatusCompleted, 100, "c1", "svcCut", "empJess"),
	}, RangeYear)

	if res.Appointments.Total != 0 || res.Revenue.Total != 0 || len(res.Services) != 0 || res.Clients.Total != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestCompute_RevenueGrowth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		appts []Appointment
		want  float64
	}{
		{"both zero", nil, 0},
		{"previous zero", []Appointment{appt("a1", "2024-01-15", StatusCompleted, 40, "", "", "")}, 100},
		{"current zero", []Appointment{appt("a1", "2024-01-10", StatusCompleted, 40, "", "", "")}, -100},
		{"fifty percent up", []Appointment{
			appt("a1", "2024-01-10", StatusCompleted, 100, "", "", ""), // previous window 01-05..01-12
			appt("a2", "2024-01-15", StatusCompleted, 150, "", "", ""),
		}, 50},
		{"previous boundary days", []Appointment{
			appt("a1", "2024-01-05", StatusCompleted, 50, "", "", ""),
			appt("a2", "2024-01-12", StatusCompleted, 50, "", "", ""),
			appt("a3", "2024-01-04", StatusCompleted, 1000, "", "", ""), // outside both windows
			appt("a4", "2024-01-20", StatusCompleted, 300, "", "", ""),
		}, 200},
		{"previous cancelled ignored", []Appointment{
			appt("a1", "2024-01-10", StatusCancelled, 100, "", "", ""),
			appt("a2", "2024-01-15", StatusCompleted, 10, "", "", ""),
		}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := compute(t, tt.appts, RangeWeek)
			if res.Revenue.Growth != tt.want {
				t.Errorf("growth = %v, want %v", res.Revenue.Growth, tt.want)
			}
		})
	}
}

func TestCompute_TopTenOrdering(t *testing.T) {
	t.Parallel()

	var appts []Appointment
	// 12 services; svc00..svc11 with revenue 10*(i+1), plus two ties at the top.
	for i := 0; i < 12; i++ {
		appts = append(appts, appt(fmt.Sprintf("a%d", i), "2024-01-15", StatusCompleted, float64(10*(i+1)), "", fmt.Sprintf("svc%02d", i), ""))
	}
	appts = append(appts,
		appt("tieB", "2024-01-15", StatusCompleted, 500, "", "zzB", ""),
		appt("tieA", "2024-01-15", StatusCompleted, 500, "", "zzA", ""),
	)

	res := compute(t, appts, RangeWeek)
	if len(res.Services) != 10 {
		t.Fatalf("len(services) = %d, want 10", len(res.Services))
	}
	// Unresolved ids fall back to placeholders: "Service zzzA"-style names.
	if res.Services[0].Name != namecache.Placeholder(namecache.KindService, "zzA") ||
		res.Services[1].Name != namecache.Placeholder(namecache.KindService, "zzB") {
		t.Errorf("tie order = %q, %q; want name ascending", res.Services[0].Name, res.Services[1].Name)
	}
	for i := 1; i < len(res.Services); i++ {
		if res.Services[i].Revenue > res.Services[i-1].Revenue {
			t.Errorf("services not sorted by revenue at %d: %v > %v", i, res.Services[i].Revenue, res.Services[i-1].Revenue)
		}
	}
}

func TestCompute_Heuristics(t *testing.T) {
	t.Parallel()

	var appts []Appointment
	for i := 0; i < 8; i++ {
		appts = append(appts, appt(fmt.Sprintf("a%d", i), "2024-01-16", StatusScheduled, 0, "", "svcCut", "empJess"))
	}
	appts = append(appts,
		appt("b1", "2024-01-16", StatusScheduled, 0, "", "svcBeard", "empTom"),
		appt("b2", "2024-01-16", StatusScheduled, 0, "", "svcBeard", "empTom"),
	)

	res := compute(t, appts, RangeWeek)

	growth := map[string]float64{}
	for _, s := range res.Services {
		growth[s.Name] = s.Growth
	}
	if growth["Hair Cut"] != 300 {
		t.Errorf("Hair Cut growth = %v, want 300 ((8-2)/2*100)", growth["Hair Cut"])
	}
	if growth["Beard Trim"] != 0 {
		t.Errorf("Beard Trim growth = %v, want 0", growth["Beard Trim"])
	}

	util := map[string]float64{}
	for _, e := range res.Employees {
		util[e.Name] = e.Utilization
	}
	if util["Jessica"] != 100 {
		t.Errorf("Jessica utilization = %v, want 100 (capped)", util["Jessica"])
	}
	if util["Tom"] != 30 {
		t.Errorf("Tom utilization = %v, want 30", util["Tom"])
	}
}

func TestFromRecord(t *testing.T) {
	t.Parallel()

	a := FromRecord(airtable.Record{ID: "rec1", Fields: map[string]any{
		"Client":   []any{"cliA", "cliB"},
		"Service":  []any{"svcA"},
		"Employee": []any{},
		"Date":     "2024-01-15T10:00:00.000Z",
		"Status":   "Completed",
		"Price":    "45.50",
	}})

	if a.ClientID != "cliA" || a.ServiceID != "svcA" || a.EmployeeID != "" {
		t.Errorf("linked ids = %q %q %q", a.ClientID, a.ServiceID, a.EmployeeID)
	}
	if !a.HasDate || FormatDate(a.Date) != "2024-01-15" {
		t.Errorf("date = %v (ok=%v), want 2024-01-15", a.Date, a.HasDate)
	}
	if !a.Price.Equal(decimal.RequireFromString("45.5")) {
		t.Errorf("price = %s, want 45.5", a.Price)
	}

	missing := FromRecord(airtable.Record{ID: "rec2", Fields: map[string]any{"Price": "call us"}})
	if !missing.Price.IsZero() || missing.HasDate {
		t.Errorf("missing = %+v, want zero price and no date", missing)
	}
}
