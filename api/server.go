/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     logrus request logging with the request id
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the portal frontend
  5. Identity:   X-Employee-ID header into the request context

ROUTE GROUPS:
  /api/settings/*       Default work policy
  /api/groups/*         Employee groups
  /api/employees/*      Employees and everything scoped to one employee
  /api/calendar/*       Stateless calendar engine access
  /api/regions          Supported holiday regions
  /healthz              Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// HeaderEmployeeID names the calling employee.
const HeaderEmployeeID = "X-Employee-ID"

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderEmployeeID},
		AllowCredentials: true,
	}))
	r.Use(identify)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Get("/regions", h.ListRegions)
		r.Post("/calendar/count", h.CountDays)

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/default", h.GetDefaultPolicy)
			r.Put("/default", h.UpdateDefaultPolicy)
		})

		// Group routes
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.UpdateGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEmployee)
				r.Put("/", h.UpdateEmployee)
				r.Delete("/", h.DeleteEmployee)
				r.Post("/password", h.ResetPassword)
				r.Get("/policy", h.GetEffectivePolicy)
				r.Get("/holidays", h.GetHolidays)
				r.Get("/target-hours", h.GetTargetHours)
				r.Get("/vacation", h.GetVacation)
				r.Get("/timesheet", h.GetTimesheet)
				r.Get("/absences", h.ListAbsences)
				r.Post("/absences", h.AddAbsence)
				r.Put("/absences/{absenceID}", h.UpdateAbsence)
				r.Delete("/absences/{absenceID}", h.RemoveAbsence)
				r.Post("/absences/{absenceID}/approve", h.ApproveAbsence)
				r.Get("/terminal", h.GetTerminal)
				r.Post("/terminal/{action}", h.TerminalAction)
			})
		})

		// Terminal overview
		r.Get("/terminal/open", h.ListOpenSessions)
	})

	return r
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type contextKey struct{ name string }

var callerKey = &contextKey{"caller"}

// identify stores the X-Employee-ID header in the request context.
func identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(HeaderEmployeeID); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), callerKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// callerID returns the calling employee id, or "" when none was sent.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(callerKey).(string)
	return id
}

// requestLogger logs one line per request through logrus.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				}).Debug("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
