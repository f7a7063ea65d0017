/*
handlers.go - HTTP API handlers for the HR portal

PURPOSE:
  Exposes the portal service via REST API. Handles HTTP request/response,
  JSON serialization and request validation, and delegates to portal.Service.

ENDPOINTS:
  Settings:
    GET    /api/settings/default                 Default work policy
    PUT    /api/settings/default                 Replace Default policy (admin)

  Groups (admin):
    GET    /api/groups                           List groups
    POST   /api/groups                           Create group
    GET    /api/groups/{id}                      Get group
    PUT    /api/groups/{id}                      Update group
    DELETE /api/groups/{id}                      Delete group

  Employees:
    GET    /api/employees                        List employees (admin)
    POST   /api/employees                        Create employee (admin)
    GET    /api/employees/{id}                   Get employee (self or admin)
    PUT    /api/employees/{id}                   Update employee (admin)
    DELETE /api/employees/{id}                   Delete employee (admin)
    POST   /api/employees/{id}/password          Reset password (admin)
    GET    /api/employees/{id}/policy            Effective policy + sources
    GET    /api/employees/{id}/holidays          Holiday calendar
    GET    /api/employees/{id}/target-hours      Monthly target
    GET    /api/employees/{id}/vacation          Vacation balance
    GET    /api/employees/{id}/absences          List absences
    POST   /api/employees/{id}/absences          Add absence
    DELETE /api/employees/{id}/absences/{aid}    Remove absence
    POST   /api/employees/{id}/absences/{aid}/approve  Approve (admin)
    GET    /api/employees/{id}/terminal          Today's session
    POST   /api/employees/{id}/terminal/{action} start|pause|resume|end
    GET    /api/employees/{id}/timesheet         Monthly timesheet

  Other:
    POST   /api/login                            Check credentials
    GET    /api/regions                          Supported holiday regions
    POST   /api/calendar/count                   Stateless day counts
    GET    /api/terminal/open                    Open sessions (admin)

IDENTITY:
  The caller is named by the X-Employee-ID header. The admin flag is read
  from the stored employee record.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, illegal transitions
  - 403: Caller may not perform the action
  - 404: Resource not found
  - 409: Duplicate email, employee number or group name
  - 500: Configuration and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/holidays"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *portal.Service
	log      *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler creates a handler over the portal service.
func NewHandler(svc *portal.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Service:  svc,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetDefaultPolicy returns the Default work policy.
func (h *Handler) GetDefaultPolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	p, err := h.Service.DefaultPolicy(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateDefaultPolicy replaces the Default work policy. Every field is required.
func (h *Handler) UpdateDefaultPolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req settings.WorkPolicy
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Service.UpdateDefaultPolicy(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns all groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// GetGroup returns one group.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	g, err := h.Service.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// CreateGroup creates a group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req GroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.Service.CreateGroup(r.Context(), portal.GroupInput{Name: req.Name, Policy: req.Policy})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// UpdateGroup replaces the name and policy layer of a group.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req GroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.Service.UpdateGroup(r.Context(), chi.URLParam(r, "id"), portal.GroupInput{Name: req.Name, Policy: req.Policy})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGroup deletes a group. Its members fall back to the Default layer.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	if err := h.Service.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := req.toInput()
	in.Password = req.Password
	emp, err := h.Service.CreateEmployee(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

// UpdateEmployee replaces the editable fields of an employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeleteEmployee removes an employee and all of their records.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	if err := h.Service.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword sets a new password for an employee.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login checks credentials and returns the employee. The client sends the
// returned id as X-Employee-ID afterwards.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// POLICY & CALENDAR HANDLERS
// =============================================================================

// GetEffectivePolicy returns the resolved policy of an employee.
func (h *Handler) GetEffectivePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	res, err := h.Service.EffectivePolicy(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PolicyResponse{Policy: res.Policy, Sources: res.Sources})
}

// GetHolidays returns the holiday calendar of an employee.
// GET /api/employees/{id}/holidays?year=2024
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	year, ok := h.queryYear(w, r)
	if !ok {
		return
	}
	cal, err := h.Service.Holidays(r.Context(), id, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// GetTargetHours returns the monthly target of an employee.
// GET /api/employees/{id}/target-hours?year=2024&month=2
func (h *Handler) GetTargetHours(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	year, month, ok := h.queryMonth(w, r)
	if !ok {
		return
	}
	target, err := h.Service.MonthlyTarget(r.Context(), id, year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// GetVacation returns the vacation balance of an employee.
func (h *Handler) GetVacation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	year, ok := h.queryYear(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.VacationSummary(r.Context(), id, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GetTimesheet returns the monthly timesheet of an employee.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	year, month, ok := h.queryMonth(w, r)
	if !ok {
		return
	}
	sheet, err := h.Service.Timesheet(r.Context(), id, year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// ListRegions returns the supported holiday regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, holidays.Countries())
}

// maxCountDays bounds the range CountDays walks.
const maxCountDays = 10 * 366

// CountDays runs the calendar engine on an arbitrary range.
// POST /api/calendar/count
func (h *Handler) CountDays(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if !h.decode(w, r, &req) {
		return
	}
	rng, err := DateRangeDTO{StartDate: req.StartDate, EndDate: req.EndDate}.toRange()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rng.Len() > maxCountDays {
		h.fail(w, r, &portal.InputError{Field: "endDate", Reason: "range must not exceed 10 years"})
		return
	}
	company := make([]calendar.AbsenceInterval, 0, len(req.CompanyHolidays))
	for _, dto := range req.CompanyHolidays {
		hr, err := dto.toRange()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		company = append(company, calendar.AbsenceInterval{Start: hr.Start, End: hr.End, Category: calendar.CategoryHoliday})
	}

	engine := h.Service.Engine()
	resp := CountResponse{Region: req.Region}
	if resp.CalendarDays, err = engine.CountCalendarDays(rng.Start, rng.End); err != nil {
		h.fail(w, r, err)
		return
	}
	if resp.Workdays, err = engine.CountWorkdays(rng.Start, rng.End, req.Region); err != nil {
		h.fail(w, r, err)
		return
	}
	if resp.VacationDays, err = engine.CountVacationDaysConsumed(rng.Start, rng.End, req.Region, company); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// ListAbsences returns the absences of an employee for a year.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	year, ok := h.queryYear(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Absences(r.Context(), id, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTOs(list))
}

// UpdateAbsence edits the dates, category or label of an absence.
func (h *Handler) UpdateAbsence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, ok := h.authorize(w, r, id, false)
	if !ok {
		return
	}
	var req AbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.Service.UpdateAbsence(r.Context(), caller, id, chi.URLParam(r, "absenceID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(*a))
}

// AddAbsence records an absence.
func (h *Handler) AddAbsence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, ok := h.authorize(w, r, id, false)
	if !ok {
		return
	}
	var req AbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.Service.AddAbsence(r.Context(), caller, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceDTO(*a))
}

// ApproveAbsence approves a pending absence.
func (h *Handler) ApproveAbsence(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, "", true)
	if !ok {
		return
	}
	a, err := h.Service.ApproveAbsence(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "absenceID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(*a))
}

// RemoveAbsence deletes an absence.
func (h *Handler) RemoveAbsence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, ok := h.authorize(w, r, id, false)
	if !ok {
		return
	}
	if err := h.Service.RemoveAbsence(r.Context(), caller, id, chi.URLParam(r, "absenceID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TERMINAL HANDLERS
// =============================================================================

// GetTerminal returns today's session of an employee.
func (h *Handler) GetTerminal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}
	sess, err := h.Service.CurrentSession(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// TerminalAction applies start, pause, resume or end. Only the employee
// operates their own terminal.
// POST /api/employees/{id}/terminal/{action}
func (h *Handler) TerminalAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if callerID(r) != id {
		h.fail(w, r, portal.ErrUnauthorized)
		return
	}
	if _, ok := h.authorize(w, r, id, false); !ok {
		return
	}

	action := terminal.Action(chi.URLParam(r, "action"))
	switch action {
	case terminal.ActionStart, terminal.ActionPause, terminal.ActionResume, terminal.ActionEnd:
	default:
		writeError(w, http.StatusNotFound, "Unknown terminal action", nil)
		return
	}

	var location terminal.Location
	if action == terminal.ActionStart {
		var req TerminalRequest
		if r.ContentLength != 0 && !h.decode(w, r, &req) {
			return
		}
		location = req.location()
	}
	sess, err := h.Service.Transition(r.Context(), id, action, location)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ListOpenSessions returns every session still active or on break.
func (h *Handler) ListOpenSessions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "", true); !ok {
		return
	}
	sessions, err := h.Service.OpenSessions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []terminal.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// authorize resolves the caller and writes a 403 when it may not act on
// target. An empty target means no particular employee.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, target string, adminOnly bool) (*portal.Employee, bool) {
	caller := callerID(r)
	if target == "" {
		target = caller
	}
	emp, err := h.Service.Authorize(r.Context(), caller, target, adminOnly)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return emp, true
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) queryYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 2200 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return 0, false
		}
		year = y
	}
	return year, true
}

func (h *Handler) queryMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, ok := h.queryYear(w, r)
	if !ok {
		return 0, 0, false
	}
	month := h.now().Month()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month (use 1-12)", err)
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}

// fail maps a service error onto a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	writeError(w, status, message, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, settings.ErrConfiguration):
		return http.StatusInternalServerError, "Work policy configuration incomplete; an administrator must initialise the default work policy"
	case errors.Is(err, portal.ErrUnauthorized):
		return http.StatusForbidden, "Not authorized"
	case portal.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, portal.ErrDuplicate):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, calendar.ErrUnknownRegion):
		return http.StatusBadRequest, "Unknown holiday region; select a valid holiday region"
	case portal.IsClientError(err):
		return http.StatusBadRequest, "Invalid request"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
