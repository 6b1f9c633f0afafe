// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/validation"
)

func (h *Handler) employees(ctx context.Context) ([]Employee, error) {
	return listOrEmpty(ctx, h.store, h.cfg.Airtable.EmployeesTable, airtable.ListOptions{
		Sort: []airtable.SortField{{Field: "Full Name", Direction: "asc"}},
	}, employeeFromRecord)
}

// ListEmployees returns every employee with their availability days.
//
// @Summary List employees
// @Tags Employees
// @Produce json
// @Success 200 {array} Employee
// @Router /api/employee-availability [get]
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	out, err := h.employees(r.Context())
	if err != nil {
		writeListError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GetEmployee returns one employee.
//
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Employee
// @Failure 404 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /api/employees/{id} [get]
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), h.cfg.Airtable.EmployeesTable, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, employeeFromRecord(rec))
}

// CreateEmployee adds a staff member. Status defaults to Active.
//
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee body EmployeeRequest true "Employee"
// @Success 201 {object} Employee
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /api/employees [post]
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FullName == nil || *req.FullName == "" {
		respondValidation(w, r, validation.ValidateVar("full_name", "", "required"))
		return
	}
	fields := req.airtableFields()
	if _, ok := fields["Status"]; !ok {
		fields["Status"] = employeeActive
	}

	rec, err := h.store.Create(r.Context(), h.cfg.Airtable.EmployeesTable, fields)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, employeeFromRecord(rec))
}

// UpdateEmployee applies a partial update.
//
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param employee body EmployeeRequest true "Fields to change"
// @Success 200 {object} Employee
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /api/employees/{id} [put]
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.store.Update(r.Context(), h.cfg.Airtable.EmployeesTable, chi.URLParam(r, "id"), req.airtableFields())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, employeeFromRecord(rec))
}

// DeleteEmployee removes a staff member.
//
// @Summary Delete employee
// @Tags Employees
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /api/employees/{id} [delete]
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), h.cfg.Airtable.EmployeesTable, chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Employee deleted successfully"})
}
