/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the portal model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Composite response wrappers

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run
  validator.Struct before converting a request into a portal input; the
  portal service still enforces the domain rules.

SEE ALSO:
  - handlers.go: Uses these types
  - portal: Service inputs the requests convert into
*/
package api

import (
	"time"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GroupRequest creates or updates an employee group. Unset policy fields
// inherit from the Default layer.
type GroupRequest struct {
	Name   string              `json:"name" validate:"required,min=1,max=100"`
	Policy settings.WorkPolicy `json:"policy"`
}

// EmployeeRequest holds the editable fields of an employee.
type EmployeeRequest struct {
	EmployeeNumber    string              `json:"employeeNumber" validate:"required,max=50"`
	Name              string              `json:"name" validate:"required,max=200"`
	Email             string              `json:"email" validate:"required,email"`
	IsAdmin           bool                `json:"isAdmin"`
	GroupID           *string             `json:"groupId" validate:"omitempty,uuid"`
	UseCustomSettings bool                `json:"useCustomSettings"`
	Policy            settings.WorkPolicy `json:"policy"`
}

// CreateEmployeeRequest is EmployeeRequest plus the initial password.
type CreateEmployeeRequest struct {
	EmployeeRequest
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// PasswordRequest sets a new password.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest checks an email and password pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AbsenceRequest records an absence interval.
type AbsenceRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Category  string `json:"category" validate:"required,oneof=vacation businessTrip sickLeave holiday"`
	Label     string `json:"label" validate:"max=200"`
}

// TerminalRequest carries the location for a start action.
type TerminalRequest struct {
	Location string `json:"location" validate:"omitempty,oneof=office remote"`
}

// DateRangeDTO is an inclusive date range.
type DateRangeDTO struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// CountRequest asks the calendar engine to count days in a range.
type CountRequest struct {
	Region          string         `json:"region" validate:"required"`
	StartDate       string         `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string         `json:"endDate" validate:"required,datetime=2006-01-02"`
	CompanyHolidays []DateRangeDTO `json:"companyHolidays" validate:"max=366,dive"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                string               `json:"id"`
	EmployeeNumber    string               `json:"employeeNumber"`
	Name              string               `json:"name"`
	Email             string               `json:"email"`
	IsAdmin           bool                 `json:"isAdmin"`
	GroupID           *string              `json:"groupId,omitempty"`
	UseCustomSettings bool                 `json:"useCustomSettings"`
	Policy            *settings.WorkPolicy `json:"policy,omitempty"`
	CreatedAt         string               `json:"createdAt"`
}

// PolicyResponse is an effective policy with the layer of each field.
type PolicyResponse struct {
	Policy  settings.EffectivePolicy          `json:"policy"`
	Sources map[settings.Field]settings.Layer `json:"sources"`
}

// AbsenceDTO represents an absence in API responses.
type AbsenceDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Category   string `json:"category"`
	Label      string `json:"label"`
	Status     string `json:"status"`
}

// CountResponse is the result of a calendar count.
type CountResponse struct {
	Region       string `json:"region"`
	CalendarDays int    `json:"calendarDays"`
	Workdays     int    `json:"workdays"`
	VacationDays int    `json:"vacationDays"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (r EmployeeRequest) toInput() portal.EmployeeInput {
	return portal.EmployeeInput{
		EmployeeNumber:    r.EmployeeNumber,
		Name:              r.Name,
		Email:             r.Email,
		IsAdmin:           r.IsAdmin,
		GroupID:           r.GroupID,
		UseCustomSettings: r.UseCustomSettings,
		Policy:            r.Policy,
	}
}

func (r AbsenceRequest) toInput() (portal.AbsenceInput, error) {
	start, err := calendar.ParseDay(r.StartDate)
	if err != nil {
		return portal.AbsenceInput{}, &portal.InputError{Field: "startDate", Reason: err.Error()}
	}
	end, err := calendar.ParseDay(r.EndDate)
	if err != nil {
		return portal.AbsenceInput{}, &portal.InputError{Field: "endDate", Reason: err.Error()}
	}
	return portal.AbsenceInput{
		Start:    start,
		End:      end,
		Category: calendar.AbsenceCategory(r.Category),
		Label:    r.Label,
	}, nil
}

func (r DateRangeDTO) toRange() (calendar.Range, error) {
	start, err := calendar.ParseDay(r.StartDate)
	if err != nil {
		return calendar.Range{}, &portal.InputError{Field: "startDate", Reason: err.Error()}
	}
	end, err := calendar.ParseDay(r.EndDate)
	if err != nil {
		return calendar.Range{}, &portal.InputError{Field: "endDate", Reason: err.Error()}
	}
	return calendar.NewRange(start, end)
}

func (r TerminalRequest) location() terminal.Location {
	if r.Location == "" {
		return terminal.LocationOffice
	}
	return terminal.Location(r.Location)
}

func toEmployeeDTO(e portal.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                e.ID,
		EmployeeNumber:    e.EmployeeNumber,
		Name:              e.Name,
		Email:             e.Email,
		IsAdmin:           e.IsAdmin,
		GroupID:           e.GroupID,
		UseCustomSettings: e.UsesCustomSettings(),
		Policy:            e.Policy,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}

func toEmployeeDTOs(list []portal.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, len(list))
	for i, e := range list {
		dtos[i] = toEmployeeDTO(e)
	}
	return dtos
}

func toAbsenceDTO(a portal.Absence) AbsenceDTO {
	return AbsenceDTO{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		StartDate:  a.Start.String(),
		EndDate:    a.End.String(),
		Category:   string(a.Category),
		Label:      a.Label,
		Status:     string(a.Status),
	}
}

func toAbsenceDTOs(list []portal.Absence) []AbsenceDTO {
	dtos := make([]AbsenceDTO, len(list))
	for i, a := range list {
		dtos[i] = toAbsenceDTO(a)
	}
	return dtos
}
