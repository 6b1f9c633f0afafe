// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/validation"
)

// listOrEmpty lists a table and maps each record. An unconfigured store
// yields an empty list instead of an error.
func listOrEmpty[T any](ctx context.Context, store airtable.Store, table string, opts airtable.ListOptions, mapFn func(airtable.Record) T) ([]T, error) {
	records, err := store.List(ctx, table, opts)
	if errors.Is(err, airtable.ErrNotConfigured) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	for i, rec := range records {
		out[i] = mapFn(rec)
	}
	return out, nil
}

// ListAppointments returns appointments, newest date first.
//
// @Summary List appointments
// @Tags Booking
// @Produce json
// @Success 200 {array} Appointment
// @Failure 500 {object} APIResponse
// @Router /api/appointments [get]
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	out, err := listOrEmpty(r.Context(), h.store, h.cfg.Airtable.AppointmentsTable, airtable.ListOptions{
		Sort: []airtable.SortField{{Field: "Date", Direction: "desc"}},
	}, appointmentFromRecord)
	if err != nil {
		writeListError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateAppointment books an appointment with status Scheduled.
//
// @Summary Create appointment
// @Tags Booking
// @Accept json
// @Produce json
// @Param appointment body AppointmentCreateRequest true "Booking"
// @Success 201 {object} Appointment
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /api/appointments [post]
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.store.Create(r.Context(), h.cfg.Airtable.AppointmentsTable, req.airtableFields())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, appointmentFromRecord(rec))
}

// Availability returns the slots for one day ordered by start time.
//
// @Summary Availability for a date
// @Tags Booking
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {array} AvailabilitySlot
// @Failure 400 {object} APIResponse
// @Router /api/availability [get]
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if verr := validation.ValidateVar("date", date, "required,datestr"); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	out, err := listOrEmpty(r.Context(), h.store, h.cfg.Airtable.AvailabilityTable, airtable.ListOptions{
		Formula: fmt.Sprintf("{Date} = '%s'", airtable.EscapeFormulaString(date)),
		Sort:    []airtable.SortField{{Field: "Start Time", Direction: "asc"}},
	}, slotFromRecord)
	if err != nil {
		writeListError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) services(ctx context.Context) ([]Service, error) {
	return listOrEmpty(ctx, h.store, h.cfg.Airtable.ServicesTable, airtable.ListOptions{
		Sort: []airtable.SortField{{Field: "Name", Direction: "asc"}},
	}, serviceFromRecord)
}

// ListServices returns services sorted by name.
//
// @Summary List services
// @Tags Booking
// @Produce json
// @Success 200 {array} Service
// @Router /api/services [get]
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	out, err := h.services(r.Context())
	if err != nil {
		writeListError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// ServicesWithDuration returns the trimmed service list used for slot
// planning.
//
// @Summary Services with duration
// @Tags Booking
// @Produce json
// @Success 200 {array} ServiceDuration
// @Router /api/services-with-duration [get]
func (h *Handler) ServicesWithDuration(w http.ResponseWriter, r *http.Request) {
	services, err := h.services(r.Context())
	if err != nil {
		writeListError(w, r, err)
		return
	}
	out := make([]ServiceDuration, len(services))
	for i, s := range services {
		out[i] = ServiceDuration{ID: s.ID, Name: s.Name, Duration: s.Duration, Price: s.Price}
	}
	respondJSON(w, http.StatusOK, out)
}

// TherapistsByService returns active employees whose expertise names the
// service.
//
// @Summary Therapists for a service
// @Tags Booking
// @Produce json
// @Param serviceName path string true "Service name"
// @Success 200 {array} Employee
// @Router /api/therapists-by-service/{serviceName} [get]
func (h *Handler) TherapistsByService(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the name carries escapes like %26.
	service, err := url.PathUnescape(chi.URLParam(r, "serviceName"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid service name", nil)
		return
	}
	employees, err := h.employees(r.Context())
	if err != nil {
		writeListError(w, r, err)
		return
	}

	out := make([]Employee, 0, len(employees))
	for _, e := range employees {
		if e.Status == employeeActive && e.hasExpertise(service) {
			out = append(out, e)
		}
	}
	respondJSON(w, http.StatusOK, out)
}
