// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/namecache"
)

// Appointment statuses with their own counters. Anything else only counts
// toward the total.
const (
	StatusCompleted = "Completed"
	StatusScheduled = "Scheduled"
	StatusCancelled = "Cancelled"
)

const (
	topN = 10

	// utilizationPerAppointment and serviceGrowthBaseline are dashboard
	// heuristics, not measured values.
	utilizationPerAppointment = 15
	serviceGrowthBaseline     = 2
)

// Appointment is the subset of an appointment record used for analytics.
type Appointment struct {
	ID         string
	ClientID   string
	ServiceID  string
	EmployeeID string
	Status     string
	Date       time.Time
	HasDate    bool
	Price      decimal.Decimal
}

// FromRecord reads an Appointments row. Linked fields use their first ID.
func FromRecord(rec airtable.Record) Appointment {
	a := Appointment{
		ID:     rec.ID,
		Status: airtable.String(rec.Fields, "Status"),
		Price:  decimal.NewFromFloat(airtable.Number(rec.Fields, "Price")),
	}
	a.ClientID, _ = airtable.FirstLinkedID(rec.Fields, "Client")
	a.ServiceID, _ = airtable.FirstLinkedID(rec.Fields, "Service")
	a.EmployeeID, _ = airtable.FirstLinkedID(rec.Fields, "Employee")
	a.Date, a.HasDate = ParseDate(airtable.String(rec.Fields, "Date"))
	return a
}

// Result is the /api/analytics payload.
type Result struct {
	Revenue      RevenueStats     `json:"revenue"`
	Appointments AppointmentStats `json:"appointments"`
	Clients      ClientStats      `json:"clients"`
	Services     []ServiceStats   `json:"services"`
	Employees    []EmployeeStats  `json:"employees"`
	Range        Range            `json:"range"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
}

type RevenueStats struct {
	Total               float64 `json:"total"`
	Growth              float64 `json:"growth"`
	AvgAppointmentValue float64 `json:"avg_appointment_value"`
}

type AppointmentStats struct {
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Cancelled        int     `json:"cancelled"`
	Scheduled        int     `json:"scheduled"`
	CompletionRate   float64 `json:"completion_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
}

type ClientStats struct {
	Total         int     `json:"total"`
	NewInPeriod   int     `json:"new_in_period"`
	Returning     int     `json:"returning"`
	RetentionRate float64 `json:"retention_rate"`
}

type ServiceStats struct {
	Name     string  `json:"name"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
	Growth   float64 `json:"growth"`
}

type EmployeeStats struct {
	Name         string  `json:"name"`
	Appointments int     `json:"appointments"`
	Revenue      float64 `json:"revenue"`
	Utilization  float64 `json:"utilization"`
}

type bucket struct {
	count   int
	revenue decimal.Decimal
}

// Compute aggregates appointments over window w. It is a pure function of
// its inputs; names only supplies the display labels of the breakdowns.
func Compute(ctx context.Context, appts []Appointment, r Range, w Window, names namecache.Resolver) *Result {
	var (
		total, completed, scheduled, cancelled int
		revenue                                = decimal.Zero
		services                               = map[string]*bucket{}
		employees                              = map[string]*bucket{}
	)

	for i := range appts {
		a := &appts[i]
		if !a.HasDate || !w.Contains(a.Date) {
			continue
		}

		total++
		done := a.Status == StatusCompleted
		switch a.Status {
		case StatusCompleted:
			completed++
			revenue = revenue.Add(a.Price)
		case StatusScheduled:
			scheduled++
		case StatusCancelled:
			cancelled++
		}

		if a.ServiceID != "" {
			b := bucketFor(services, names.GetOrFetch(ctx, namecache.KindService, a.ServiceID))
			b.count++
			if done {
				b.revenue = b.revenue.Add(a.Price)
			}
		}
		if a.EmployeeID != "" {
			b := bucketFor(employees, names.GetOrFetch(ctx, namecache.KindEmployee, a.EmployeeID))
			b.count++
			if done {
				b.revenue = b.revenue.Add(a.Price)
			}
		}
	}

	res := &Result{
		Range:     r,
		StartDate: FormatDate(w.Start),
		EndDate:   FormatDate(w.End),
		Appointments: AppointmentStats{
			Total:            total,
			Completed:        completed,
			Scheduled:        scheduled,
			Cancelled:        cancelled,
			CompletionRate:   percent(completed, total),
			CancellationRate: percent(cancelled, total),
		},
		Revenue: RevenueStats{
			Total:  round2(revenue),
			Growth: revenueGrowth(revenue, previousRevenue(appts, w.Previous())),
		},
		Clients:   retention(appts, w),
		Services:  topServices(services),
		Employees: topEmployees(employees),
	}
	// Unrounded so that avg * completed gives back the reported total.
	if completed > 0 {
		total := decimal.NewFromFloat(res.Revenue.Total)
		res.Revenue.AvgAppointmentValue = total.Div(decimal.NewFromInt(int64(completed))).InexactFloat64()
	}
	return res
}

func bucketFor(m map[string]*bucket, name string) *bucket {
	b, ok := m[name]
	if !ok {
		b = &bucket{revenue: decimal.Zero}
		m[name] = b
	}
	return b
}

// retention classifies clients over the whole history. A client is new when
// their first appointment falls in w, and returning when it precedes w and
// they have any appointment in w.
func retention(appts []Appointment, w Window) ClientStats {
	earliest := map[string]time.Time{}
	active := map[string]bool{}
	for i := range appts {
		a := &appts[i]
		if a.ClientID == "" || !a.HasDate {
			continue
		}
		if first, ok := earliest[a.ClientID]; !ok || a.Date.Before(first) {
			earliest[a.ClientID] = a.Date
		}
		if w.Contains(a.Date) {
			active[a.ClientID] = true
		}
	}

	var stats ClientStats
	for client, first := range earliest {
		switch {
		case w.Contains(first):
			stats.NewInPeriod++
		case first.Before(w.Start) && active[client]:
			stats.Returning++
		}
	}
	stats.Total = stats.NewInPeriod + stats.Returning
	stats.RetentionRate = percent(stats.Returning, stats.Total)
	return stats
}

func previousRevenue(appts []Appointment, prev Window) decimal.Decimal {
	sum := decimal.Zero
	for i := range appts {
		a := &appts[i]
		if a.HasDate && a.Status == StatusCompleted && prev.Contains(a.Date) {
			sum = sum.Add(a.Price)
		}
	}
	return sum
}

func revenueGrowth(cur, prev decimal.Decimal) float64 {
	switch {
	case prev.IsPositive():
		return round2(cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)))
	case cur.IsPositive():
		return 100
	default:
		return 0
	}
}

func topServices(m map[string]*bucket) []ServiceStats {
	out := make([]ServiceStats, 0, len(m))
	for name, b := range m {
		growth := 0.0
		if b.count > serviceGrowthBaseline {
			growth = roundFloat(float64(b.count-serviceGrowthBaseline) / serviceGrowthBaseline * 100)
		}
		out = append(out, ServiceStats{Name: name, Bookings: b.count, Revenue: round2(b.revenue), Growth: growth})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topEmployees(m map[string]*bucket) []EmployeeStats {
	out := make([]EmployeeStats, 0, len(m))
	for name, b := range m {
		out = append(out, EmployeeStats{
			Name:         name,
			Appointments: b.count,
			Revenue:      round2(b.revenue),
			Utilization:  float64(min(b.count*utilizationPerAppointment, 100)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return roundFloat(float64(part) / float64(whole) * 100)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func roundFloat(f float64) float64 {
	return round2(decimal.NewFromFloat(f))
}
