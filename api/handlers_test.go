package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/holidays"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC) // Monday

type testServer struct {
	handler *Handler
	router  http.Handler
	svc     *portal.Service
	hook    *test.Hook
	admin   *portal.Employee
	user    *portal.Employee
}

func newTestServer(t *testing.T, bootstrap bool) *testServer {
	t.Helper()
	ctx := context.Background()
	log, hook := test.NewNullLogger()

	engine := calendar.NewEngine(holidays.NewCached(holidays.NewSource()))
	svc := portal.NewService(memory.New(), engine, log)
	svc.SetClock(func() time.Time { return fixedNow })

	if bootstrap {
		_, err := svc.Bootstrap(ctx, settings.EffectivePolicy{
			VacationDays:  30,
			DailyHours:    decimal.NewFromInt(8),
			HolidayRegion: "DE",
			MinBreakTime:  30,
		})
		require.NoError(t, err)
	}

	admin, err := svc.CreateEmployee(ctx, portal.EmployeeInput{
		EmployeeNumber: "EMP-001", Name: "Admin User", Email: "admin@company.com",
		Password: "admin123", IsAdmin: true,
	})
	require.NoError(t, err)
	user, err := svc.CreateEmployee(ctx, portal.EmployeeInput{
		EmployeeNumber: "EMP-002", Name: "John Doe", Email: "john.doe@company.com",
		Password: "password123",
	})
	require.NoError(t, err)

	h := NewHandler(svc, log)
	h.now = func() time.Time { return fixedNow }
	return &testServer{
		handler: h,
		router:  NewRouter(h, RouterOptions{}),
		svc:     svc,
		hook:    hook,
		admin:   admin,
		user:    user,
	}
}

func (s *testServer) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(HeaderEmployeeID, caller)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// =============================================================================
// IDENTITY & ERRORS
// =============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		want   int
	}{
		{"no caller", http.MethodGet, "/api/employees", "", http.StatusForbidden},
		{"unknown caller", http.MethodGet, "/api/employees", "ghost", http.StatusForbidden},
		{"user lists employees", http.MethodGet, "/api/employees", s.user.ID, http.StatusForbidden},
		{"admin lists employees", http.MethodGet, "/api/employees", s.admin.ID, http.StatusOK},
		{"user reads self", http.MethodGet, "/api/employees/" + s.user.ID, s.user.ID, http.StatusOK},
		{"user reads admin", http.MethodGet, "/api/employees/" + s.admin.ID, s.user.ID, http.StatusForbidden},
		{"admin reads user", http.MethodGet, "/api/employees/" + s.user.ID, s.admin.ID, http.StatusOK},
		{"admin reads missing", http.MethodGet, "/api/employees/missing", s.admin.ID, http.StatusNotFound},
		{"user reads default policy", http.MethodGet, "/api/settings/default", s.user.ID, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.caller, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMissingDefaultPolicy_IsServerConfigurationError(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/employees/"+s.user.ID+"/policy", s.user.ID, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, body.Error, "default work policy")
}

// =============================================================================
// SETTINGS & EMPLOYEES
// =============================================================================

func TestEffectivePolicy_ReportsSources(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/groups", s.admin.ID, GroupRequest{
		Name:   "Engineering",
		Policy: settings.WorkPolicy{HolidayRegion: settings.Ptr("DE-NW")},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	group := decodeBody[portal.Group](t, rec)

	rec = s.do(t, http.MethodPut, "/api/employees/"+s.user.ID, s.admin.ID, EmployeeRequest{
		EmployeeNumber:    "EMP-002",
		Name:              "John Doe",
		Email:             "john.doe@company.com",
		GroupID:           &group.ID,
		UseCustomSettings: true,
		Policy:            settings.WorkPolicy{VacationDays: settings.Ptr(25)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/employees/"+s.user.ID+"/policy", s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[PolicyResponse](t, rec)
	assert.Equal(t, 25, resp.Policy.VacationDays)
	assert.Equal(t, "DE-NW", resp.Policy.HolidayRegion)
	assert.Equal(t, settings.LayerIndividual, resp.Sources[settings.FieldVacationDays])
	assert.Equal(t, settings.LayerGroup, resp.Sources[settings.FieldHolidayRegion])
	assert.Equal(t, settings.LayerDefault, resp.Sources[settings.FieldDailyHours])
}

func TestUpdateDefaultPolicy(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPut, "/api/settings/default", s.admin.ID, settings.WorkPolicy{VacationDays: settings.Ptr(28)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	full := settings.FromEffective(settings.EffectivePolicy{
		VacationDays: 28, DailyHours: decimal.RequireFromString("7.5"), HolidayRegion: "AT", MinBreakTime: 30,
	})
	rec = s.do(t, http.MethodPut, "/api/settings/default", s.admin.ID, full)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	full.HolidayRegion = settings.Ptr("ZZ")
	rec = s.do(t, http.MethodPut, "/api/settings/default", s.admin.ID, full)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEmployee(t *testing.T) {
	s := newTestServer(t, true)

	req := CreateEmployeeRequest{
		EmployeeRequest: EmployeeRequest{EmployeeNumber: "EMP-003", Name: "Jane Roe", Email: "Jane.Roe@Company.com"},
		Password:        "long-enough",
	}
	rec := s.do(t, http.MethodPost, "/api/employees", s.admin.ID, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	emp := decodeBody[EmployeeDTO](t, rec)
	assert.Equal(t, "jane.roe@company.com", emp.Email)
	assert.False(t, emp.UseCustomSettings)

	rec = s.do(t, http.MethodPost, "/api/employees", s.admin.ID, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req.Email = "not-an-email"
	req.EmployeeNumber = "EMP-004"
	rec = s.do(t, http.MethodPost, "/api/employees", s.admin.ID, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "jane.roe@company.com", Password: "long-enough"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, emp.ID, decodeBody[EmployeeDTO](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: "jane.roe@company.com", Password: "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// ABSENCES, TERMINAL, CALENDAR
// =============================================================================

func TestAbsenceLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	base := "/api/employees/" + s.user.ID + "/absences"

	rec := s.do(t, http.MethodPost, base, s.user.ID, AbsenceRequest{StartDate: "2024-07-01", EndDate: "2024-07-05", Category: "vacation"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[AbsenceDTO](t, rec)
	assert.Equal(t, "pending", created.Status)

	rec = s.do(t, http.MethodPost, base, s.user.ID, AbsenceRequest{StartDate: "2024-07-05", EndDate: "2024-07-08", Category: "vacation"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base, s.user.ID, AbsenceRequest{StartDate: "2024-07-05", EndDate: "2024-07-08", Category: "sabbatical"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/"+created.ID+"/approve", s.user.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/"+created.ID+"/approve", s.admin.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decodeBody[AbsenceDTO](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/api/employees/"+s.user.ID+"/vacation?year=2024", s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[portal.VacationSummary](t, rec)
	assert.Equal(t, 5, sum.Planned)
	assert.Equal(t, 25, sum.Remaining)

	rec = s.do(t, http.MethodDelete, base+"/"+created.ID, s.user.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, base+"?year=2024", s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]AbsenceDTO](t, rec))
}

func TestUpdateAbsence(t *testing.T) {
	s := newTestServer(t, true)
	base := "/api/employees/" + s.user.ID + "/absences"

	rec := s.do(t, http.MethodPost, base, s.admin.ID, AbsenceRequest{StartDate: "2024-07-01", EndDate: "2024-07-05", Category: "vacation"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[AbsenceDTO](t, rec)
	assert.Equal(t, "approved", created.Status)

	rec = s.do(t, http.MethodPut, base+"/"+created.ID, s.user.ID, AbsenceRequest{StartDate: "2024-07-08", EndDate: "2024-07-12", Category: "vacation", Label: "moved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[AbsenceDTO](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "2024-07-08", updated.StartDate)
	assert.Equal(t, "pending", updated.Status)

	rec = s.do(t, http.MethodPut, base+"/"+created.ID, s.user.ID, AbsenceRequest{StartDate: "2024-07-12", EndDate: "2024-07-08", Category: "vacation"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/unknown", s.user.ID, AbsenceRequest{StartDate: "2024-07-08", EndDate: "2024-07-12", Category: "vacation"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/employees/"+s.admin.ID+"/absences/"+created.ID, s.user.ID, AbsenceRequest{StartDate: "2024-07-08", EndDate: "2024-07-12", Category: "vacation"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTerminalActions(t *testing.T) {
	s := newTestServer(t, true)
	base := "/api/employees/" + s.user.ID + "/terminal"

	rec := s.do(t, http.MethodPost, base+"/start", s.user.ID, TerminalRequest{Location: "remote"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/start", s.admin.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/teleport", s.user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/start", s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/resume", s.user.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, base, s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "active", sess["state"])
	assert.Equal(t, "office", sess["location"])

	rec = s.do(t, http.MethodGet, "/api/terminal/open", s.admin.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)
}

func TestTargetHours(t *testing.T) {
	s := newTestServer(t, true)
	path := "/api/employees/" + s.user.ID + "/target-hours"

	rec := s.do(t, http.MethodGet, path+"?year=2024&month=2", s.user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "168", body["hours"])
	assert.EqualValues(t, 21, body["workdays"])

	rec = s.do(t, http.MethodGet, path+"?year=2024&month=13", s.user.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCountDays(t *testing.T) {
	s := newTestServer(t, true)

	// Mon 2024-05-27 .. Sun 2024-06-02; Corpus Christi on Thursday in DE-NW.
	rec := s.do(t, http.MethodPost, "/api/calendar/count", "", CountRequest{
		Region:          "DE-NW",
		StartDate:       "2024-05-27",
		EndDate:         "2024-06-02",
		CompanyHolidays: []DateRangeDTO{{StartDate: "2024-05-31", EndDate: "2024-05-31"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[CountResponse](t, rec)
	assert.Equal(t, 7, got.CalendarDays)
	assert.Equal(t, 4, got.Workdays)
	assert.Equal(t, 3, got.VacationDays)

	rec = s.do(t, http.MethodPost, "/api/calendar/count", "", CountRequest{Region: "XX", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/calendar/count", "", CountRequest{Region: "DE", StartDate: "2024-02-01", EndDate: "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCountDays_RangeIsBounded(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/calendar/count", "", CountRequest{Region: "DE", StartDate: "1000-01-01", EndDate: "9999-12-31"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "10 years")

	rec = s.do(t, http.MethodPost, "/api/calendar/count", "", CountRequest{Region: "DE", StartDate: "2020-01-01", EndDate: "2029-12-31"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[CountResponse](t, rec)
	assert.Equal(t, 3653, got.CalendarDays)
	assert.LessOrEqual(t, got.Workdays, got.CalendarDays)
}

func TestListRegions(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodGet, "/api/regions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	countries := decodeBody[[]holidays.Country](t, rec)
	require.NotEmpty(t, countries)

	var codes []string
	for _, c := range countries {
		codes = append(codes, c.Code)
	}
	assert.Contains(t, codes, "DE")
}
