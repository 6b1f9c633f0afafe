// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"strings"
	"time"

	"github.com/tomtom215/salondesk/internal/airtable"
)

// ClientRecord is a client as the dashboard sees it.
type ClientRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	LastVisit        string   `json:"lastVisit,omitempty"`
	NextAppointment  string   `json:"nextAppointment,omitempty"`
	PreferredService string   `json:"preferredService,omitempty"`
	TotalVisits      int      `json:"totalVisits"`
	TotalSpent       float64  `json:"totalSpent"`
	Tags             []string `json:"tags"`
	Notes            string   `json:"notes,omitempty"`
	CreatedAt        string   `json:"createdAt"`
}

// Client tables have grown both title-case and camelCase columns over time,
// so reads try each spelling.
func clientFromRecord(rec airtable.Record, now time.Time) ClientRecord {
	f := rec.Fields
	c := ClientRecord{
		ID:               rec.ID,
		Name:             airtable.String(f, "Name", "Client Name", "name"),
		Email:            airtable.String(f, "Email", "email"),
		Phone:            airtable.String(f, "Phone", "phone"),
		LastVisit:        airtable.String(f, "Last Visit", "lastVisit"),
		NextAppointment:  airtable.String(f, "Next Appointment", "nextAppointment"),
		PreferredService: airtable.String(f, "Preferred Service", "preferredService"),
		TotalVisits:      int(firstNumber(f, "Total Visits", "totalVisits")),
		TotalSpent:       firstNumber(f, "Total Spent", "totalSpent"),
		Tags:             firstStrings(f, "Tags", "tags"),
		Notes:            airtable.String(f, "Notes", "notes"),
		CreatedAt:        airtable.String(f, "Created At", "createdAt"),
	}
	if c.Name == "" {
		c.Name = "Unknown"
	}
	if c.CreatedAt == "" {
		c.CreatedAt = rec.CreatedTime
	}
	if c.CreatedAt == "" {
		c.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	return c
}

func firstNumber(fields map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if n, ok := airtable.NumberOK(fields, k); ok && n != 0 {
			return n
		}
	}
	return 0
}

func firstStrings(fields map[string]any, keys ...string) []string {
	for _, k := range keys {
		if s := airtable.Strings(fields, k); len(s) > 0 {
			return s
		}
	}
	return []string{}
}

// clientFields are the optional client columns shared by create and update.
type clientFields struct {
	Email            *string   `json:"email" validate:"omitempty,email"`
	Phone            *string   `json:"phone" validate:"omitempty,phone"`
	LastVisit        *string   `json:"lastVisit" validate:"omitempty,datestr"`
	NextAppointment  *string   `json:"nextAppointment"`
	PreferredService *string   `json:"preferredService" validate:"omitempty,max=200"`
	TotalVisits      *int      `json:"totalVisits" validate:"omitempty,gte=0"`
	TotalSpent       *float64  `json:"totalSpent" validate:"omitempty,gte=0"`
	Tags             *[]string `json:"tags"`
	Notes            *string   `json:"notes" validate:"omitempty,max=5000"`
}

// ClientCreateRequest is the body of POST /api/records and /api/clients.
type ClientCreateRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	clientFields
}

// ClientUpdateRequest is the body of PUT /api/records/{id}. Absent and null
// fields are left untouched.
type ClientUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
	clientFields
}

// airtableFields writes canonical title-case column names.
func (c clientFields) airtableFields(out map[string]any) map[string]any {
	setString(out, "Email", c.Email)
	setString(out, "Phone", c.Phone)
	setString(out, "Last Visit", c.LastVisit)
	setString(out, "Next Appointment", c.NextAppointment)
	setString(out, "Preferred Service", c.PreferredService)
	setString(out, "Notes", c.Notes)
	if c.TotalVisits != nil {
		out["Total Visits"] = *c.TotalVisits
	}
	if c.TotalSpent != nil {
		out["Total Spent"] = *c.TotalSpent
	}
	if c.Tags != nil {
		out["Tags"] = *c.Tags
	}
	return out
}

func (r ClientCreateRequest) airtableFields() map[string]any {
	return r.clientFields.airtableFields(map[string]any{"Name": r.Name})
}

func (r ClientUpdateRequest) airtableFields() map[string]any {
	out := map[string]any{}
	setString(out, "Name", r.Name)
	return r.clientFields.airtableFields(out)
}

func setString(out map[string]any, key string, v *string) {
	if v != nil {
		out[key] = *v
	}
}

// Appointment is the appointment list view.
type Appointment struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"clientId"`
	ClientName string  `json:"clientName"`
	Service    string  `json:"service"`
	Staff      string  `json:"staff"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Duration   float64 `json:"duration"`
	Status     string  `json:"status"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes"`
}

func appointmentFromRecord(rec airtable.Record) Appointment {
	f := rec.Fields
	clientID := airtable.String(f, "Client ID")
	if clientID == "" {
		clientID, _ = airtable.FirstLinkedID(f, "Client")
	}
	return Appointment{
		ID:         rec.ID,
		ClientID:   clientID,
		ClientName: airtable.String(f, "Client Name"),
		Service:    airtable.String(f, "Service Name", "Service"),
		Staff:      airtable.String(f, "Staff", "Employee Name"),
		Date:       airtable.String(f, "Date"),
		Time:       airtable.String(f, "Time"),
		Duration:   airtable.Number(f, "Duration"),
		Status:     airtable.String(f, "Status"),
		Price:      airtable.Number(f, "Price"),
		Notes:      airtable.String(f, "Notes"),
	}
}

// AppointmentCreateRequest is the booking form body. IDs are written as
// linked-record arrays.
type AppointmentCreateRequest struct {
	ClientID   string `json:"client_id" validate:"required"`
	ServiceID  string `json:"service_id" validate:"required"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date" validate:"required,datestr"`
	Time       string `json:"time" validate:"omitempty,max=16"`
	Notes      string `json:"notes" validate:"omitempty,max=5000"`
}

func (r AppointmentCreateRequest) airtableFields() map[string]any {
	out := map[string]any{
		"Client":  []string{r.ClientID},
		"Service": []string{r.ServiceID},
		"Date":    r.Date,
		"Status":  "Scheduled",
	}
	if r.EmployeeID != "" {
		out["Employee"] = []string{r.EmployeeID}
	}
	if r.Time != "" {
		out["Time"] = r.Time
	}
	if r.Notes != "" {
		out["Notes"] = r.Notes
	}
	return out
}

// AvailabilitySlot is one bookable slot.
type AvailabilitySlot struct {
	ID            string `json:"id"`
	Staff         string `json:"staff"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	IsAvailable   bool   `json:"isAvailable"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

func slotFromRecord(rec airtable.Record) AvailabilitySlot {
	f := rec.Fields
	apptID, _ := airtable.FirstLinkedID(f, "Appointment")
	if apptID == "" {
		apptID = airtable.String(f, "Appointment ID")
	}
	available, _ := f["Is Available"].(bool)
	return AvailabilitySlot{
		ID:            rec.ID,
		Staff:         airtable.String(f, "Staff"),
		Date:          airtable.String(f, "Date"),
		StartTime:     airtable.String(f, "Start Time"),
		EndTime:       airtable.String(f, "End Time"),
		IsAvailable:   available,
		AppointmentID: apptID,
	}
}

// Service is a bookable treatment.
type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Duration    float64 `json:"duration"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

// defaultServiceMinutes is used when a service has no duration; the booking
// page needs one to lay out time slots.
const defaultServiceMinutes = 60

func serviceFromRecord(rec airtable.Record) Service {
	f := rec.Fields
	duration := airtable.Number(f, "Duration")
	if duration <= 0 {
		duration = defaultServiceMinutes
	}
	return Service{
		ID:          rec.ID,
		Name:        airtable.String(f, "Name", "Service Name"),
		Duration:    duration,
		Price:       airtable.Number(f, "Price"),
		Description: airtable.String(f, "Description"),
		Category:    airtable.String(f, "Category"),
	}
}

// ServiceDuration is the trimmed service shape used by the booking page.
type ServiceDuration struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Price    float64 `json:"price"`
}

// Employee is a staff member.
type Employee struct {
	ID               string   `json:"id"`
	FullName         string   `json:"full_name"`
	EmployeeNumber   string   `json:"employee_number"`
	Email            string   `json:"email"`
	ContactNumber    string   `json:"contact_number"`
	AvailabilityDays []string `json:"availability_days"`
	Expertise        []string `json:"expertise"`
	ProfilePicture   string   `json:"profile_picture"`
	StartDate        string   `json:"start_date"`
	Status           string   `json:"status"`
}

const employeeActive = "Active"

func employeeFromRecord(rec airtable.Record) Employee {
	f := rec.Fields
	e := Employee{
		ID:               rec.ID,
		FullName:         airtable.String(f, "Full Name", "Name"),
		EmployeeNumber:   airtable.String(f, "Employee Number"),
		Email:            airtable.String(f, "Email"),
		ContactNumber:    airtable.String(f, "Contact Number"),
		AvailabilityDays: airtable.Strings(f, "Availability Days"),
		Expertise:        airtable.Strings(f, "Expertise"),
		ProfilePicture:   attachmentURL(f["Profile Picture"]),
		StartDate:        airtable.String(f, "Start Date"),
		Status:           airtable.String(f, "Status"),
	}
	if e.Status == "" {
		e.Status = employeeActive
	}
	return e
}

// attachmentURL reads a URL string or the first entry of an attachment field.
func attachmentURL(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		if m, ok := t[0].(map[string]any); ok {
			s, _ := m["url"].(string)
			return s
		}
	}
	return ""
}

// hasExpertise reports a case-insensitive exact match.
func (e Employee) hasExpertise(service string) bool {
	for _, x := range e.Expertise {
		if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(service)) {
			return true
		}
	}
	return false
}

// EmployeeRequest is the body of POST and PUT /api/employees. For PUT, absent
// and null fields are left untouched.
type EmployeeRequest struct {
	FullName         *string   `json:"full_name" validate:"omitempty,min=1,max=200"`
	EmployeeNumber   *string   `json:"employee_number" validate:"omitempty,max=50"`
	Email            *string   `json:"email" validate:"omitempty,email"`
	ContactNumber    *string   `json:"contact_number" validate:"omitempty,phone"`
	AvailabilityDays *[]string `json:"availability_days" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Expertise        *[]string `json:"expertise" validate:"omitempty,dive,min=1,max=100"`
	ProfilePicture   *string   `json:"profile_picture" validate:"omitempty,clearableurl"`
	StartDate        *string   `json:"start_date" validate:"omitempty,datestr"`
	Status           *string   `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

func (r EmployeeRequest) airtableFields() map[string]any {
	out := map[string]any{}
	setString(out, "Full Name", r.FullName)
	setString(out, "Employee Number", r.EmployeeNumber)
	setString(out, "Email", r.Email)
	setString(out, "Contact Number", r.ContactNumber)
	setString(out, "Start Date", r.StartDate)
	setString(out, "Status", r.Status)
	if r.AvailabilityDays != nil {
		out["Availability Days"] = *r.AvailabilityDays
	}
	if r.Expertise != nil {
		out["Expertise"] = *r.Expertise
	}
	if r.ProfilePicture != nil {
		// Attachment fields take a list of {url}; an empty list clears it.
		pics := []any{}
		if *r.ProfilePicture != "" {
			pics = append(pics, map[string]any{"url": *r.ProfilePicture})
		}
		out["Profile Picture"] = pics
	}
	return out
}
