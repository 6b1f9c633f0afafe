// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/breaker"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/validation"
)

// APIResponse is the error envelope. Successful responses are written as
// bare JSON because the dashboard frontend reads their shapes directly.
type APIResponse struct {
	Success  bool      `json:"success"`
	Error    *APIError `json:"error,omitempty"`
	Metadata *APIMeta  `json:"metadata,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta carries response metadata.
type APIMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeBadGateway         = "EXTERNAL_SERVICE_FAILED"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	respondJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Metadata: &APIMeta{Timestamp: time.Now().UTC()},
	})
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// writeStoreError maps record store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *airtable.UpstreamError
	switch {
	case errors.Is(err, airtable.ErrNotConfigured):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, airtable.ErrNotConfigured.Error(), nil)
	case errors.Is(err, airtable.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Record not found", nil)
	case breaker.IsOpen(err):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Airtable temporarily unavailable", nil)
	case errors.As(err, &upstream):
		logging.Ctx(r.Context()).Error().Err(err).Int("upstream_status", upstream.Status).Msg("Airtable request failed")
		msg := upstream.Message
		if msg == "" {
			msg = upstream.Error()
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, msg, nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error(), nil)
	}
}

// writeListError is writeStoreError for whole-table reads. A 404 there means
// the base or table name is wrong, not that a record is missing.
func writeListError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, airtable.ErrNotFound) {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Airtable table not found")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Airtable table not found", nil)
		return
	}
	writeStoreError(w, r, err)
}

// decodeBody decodes a JSON body and validates it. It writes the error
// response itself and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidation(w, r, verr)
		return false
	}
	return true
}
