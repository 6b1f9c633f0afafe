// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/salondesk/internal/airtable"
)

// ListClients returns every client record, or two mock clients when Airtable
// is not configured. It serves both /api/records and /api/clients.
//
// @Summary List clients
// @Tags Clients
// @Produce json
// @Success 200 {array} ClientRecord
// @Failure 500 {object} APIResponse
// @Router /api/records [get]
// @Router /api/clients [get]
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context(), h.cfg.Airtable.ClientsTable, airtable.ListOptions{})
	if errors.Is(err, airtable.ErrNotConfigured) {
		respondJSON(w, http.StatusOK, mockClients())
		return
	}
	if err != nil {
		writeListError(w, r, err)
		return
	}

	now := h.now()
	out := make([]ClientRecord, len(records))
	for i, rec := range records {
		out[i] = clientFromRecord(rec, now)
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateClient creates a client record.
//
// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param client body ClientCreateRequest true "Client"
// @Success 201 {object} ClientRecord
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse "Airtable not configured"
// @Security BearerAuth
// @Router /api/records [post]
// @Router /api/clients [post]
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.store.Create(r.Context(), h.cfg.Airtable.ClientsTable, req.airtableFields())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, clientFromRecord(rec, h.now()))
}

// UpdateClient applies a partial update; only non-null fields are written.
//
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param client body ClientUpdateRequest true "Fields to change"
// @Success 200 {object} ClientRecord
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /api/records/{id} [put]
// @Router /api/clients/{id} [put]
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.store.Update(r.Context(), h.cfg.Airtable.ClientsTable, chi.URLParam(r, "id"), req.airtableFields())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clientFromRecord(rec, h.now()))
}

// DeleteClient deletes a client record.
//
// @Summary Delete client
// @Tags Clients
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /api/records/{id} [delete]
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), h.cfg.Airtable.ClientsTable, chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Record deleted successfully"})
}
