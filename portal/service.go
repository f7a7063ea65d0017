package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service orchestrates the portal use cases on top of a Store.
type Service struct {
	store  Store
	engine *calendar.Engine
	log    *logrus.Logger
	now    func() time.Time

	// writeMu serialises check-then-write sequences (absence overlap checks,
	// terminal transitions) within this process.
	writeMu sync.Mutex
}

// NewService creates a service. A nil logger falls back to the logrus
// standard logger.
func NewService(store Store, engine *calendar.Engine, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, engine: engine, log: log, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Engine exposes the calendar engine the service computes with.
func (s *Service) Engine() *calendar.Engine {
	return s.engine
}

func (s *Service) today() calendar.Day {
	return calendar.DayOf(s.now())
}

// =============================================================================
// POLICY LAYERS
// =============================================================================

// DefaultPolicy returns the Default layer. A missing layer is a
// configuration error; it is never created on read.
func (s *Service) DefaultPolicy(ctx context.Context) (settings.WorkPolicy, error) {
	def, err := s.store.GetDefaultPolicy(ctx)
	if errors.Is(err, ErrNotFound) {
		return settings.WorkPolicy{}, &settings.ConfigurationError{}
	}
	if err != nil {
		return settings.WorkPolicy{}, fmt.Errorf("load default policy: %w", err)
	}
	return def, nil
}

// Bootstrap initialises the Default layer once. It is a no-op when a
// Default layer already exists and reports whether it wrote one.
func (s *Service) Bootstrap(ctx context.Context, def settings.EffectivePolicy) (bool, error) {
	p := settings.FromEffective(def)
	if err := s.validateLayer(&p); err != nil {
		return false, err
	}
	created, err := s.store.InitDefaultPolicy(ctx, p)
	if err != nil {
		return false, fmt.Errorf("initialise default policy: %w", err)
	}
	if created {
		s.log.WithFields(logrus.Fields{
			"vacation_days":  def.VacationDays,
			"daily_hours":    def.DailyHours.String(),
			"holiday_region": *p.HolidayRegion,
		}).Info("default work policy initialised")
	}
	return created, nil
}

// UpdateDefaultPolicy replaces the Default layer. The new layer must be
// complete and its region known.
func (s *Service) UpdateDefaultPolicy(ctx context.Context, p settings.WorkPolicy) (settings.WorkPolicy, error) {
	p = p.Clone()
	if missing := p.Missing(); len(missing) > 0 {
		return settings.WorkPolicy{}, &settings.ValidationError{
			Field:  missing[0],
			Reason: "the default policy must set every field",
		}
	}
	if err := s.validateLayer(&p); err != nil {
		return settings.WorkPolicy{}, err
	}
	if err := s.store.SaveDefaultPolicy(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return settings.WorkPolicy{}, &settings.ConfigurationError{}
		}
		return settings.WorkPolicy{}, fmt.Errorf("save default policy: %w", err)
	}
	s.log.WithField("holiday_region", *p.HolidayRegion).Info("default work policy updated")
	return p, nil
}

// EffectivePolicy resolves the three layers of an employee.
func (s *Service) EffectivePolicy(ctx context.Context, employeeID string) (settings.Resolution, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return settings.Resolution{}, err
	}
	return s.resolve(ctx, emp)
}

func (s *Service) resolve(ctx context.Context, emp *Employee) (settings.Resolution, error) {
	def, err := s.DefaultPolicy(ctx)
	if err != nil {
		return settings.Resolution{}, err
	}

	var group *settings.WorkPolicy
	if emp.GroupID != nil {
		g, err := s.store.GetGroup(ctx, *emp.GroupID)
		switch {
		case err == nil:
			group = &g.Policy
		case !IsNotFound(err):
			return settings.Resolution{}, fmt.Errorf("load group %s: %w", *emp.GroupID, err)
		}
	}

	return settings.ResolveDetailed(def, group, emp.Policy)
}

// validateLayer normalises the region code and checks every set field. The
// region is checked against the holiday source for the current year.
func (s *Service) validateLayer(p *settings.WorkPolicy) error {
	if p.HolidayRegion != nil {
		r, err := calendar.ParseRegion(*p.HolidayRegion)
		if err != nil {
			return err
		}
		code := r.String()
		p.HolidayRegion = &code
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.HolidayRegion != nil {
		if _, err := s.engine.PublicHolidays(*p.HolidayRegion, s.now().Year()); err != nil {
			return err
		}
	}
	return nil
}
