// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"net/http"
)

// Analytics returns the business report for a date range. Unknown ranges
// fall back to month.
//
// @Summary Analytics report
// @Description Revenue, appointment, client, service and staff statistics, recomputed from Airtable on every request.
// @Tags Analytics
// @Produce json
// @Param range query string false "today, week, month, quarter, half_year or year" default(month)
// @Success 200 {object} analytics.Result
// @Failure 500 {object} APIResponse "Airtable error"
// @Failure 503 {object} APIResponse "Airtable not configured"
// @Router /api/analytics [get]
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.analytics.Analytics(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		writeListError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
