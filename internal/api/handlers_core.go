// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"net/http"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status           string `json:"status"`
	Airtable         string `json:"airtable"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	BaseIDConfigured bool   `json:"base_id_configured"`
	TableName        string `json:"table_name"`
}

// Root identifies the service.
//
// @Summary API banner
// @Tags Core
// @Produce json
// @Success 200 {object} object{message=string}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Salon dashboard API"})
}

// Health reports configuration status. It never calls Airtable.
//
// @Summary Health check
// @Tags Core
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	a := h.cfg.Airtable
	status := "not configured"
	if a.Configured() {
		status = "connected"
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Airtable:         status,
		APIKeyConfigured: a.APIKey != "",
		BaseIDConfigured: a.BaseID != "",
		TableName:        a.ClientsTable,
	})
}
