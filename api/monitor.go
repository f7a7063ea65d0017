/*
monitor.go - Open terminal session monitor

PURPOSE:
  Periodically lists terminal sessions that are still active or on break
  and logs those that have been open longer than a threshold, so that a
  forgotten "end" is noticed.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Never changes session state; closing a day is the employee's action
  - A zero interval disables the monitor

USAGE:
  monitor := NewSessionMonitor(svc, log)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - portal/terminal.go: OpenSessions
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/terminal"
)

// SessionMonitor reports terminal sessions left open.
type SessionMonitor struct {
	Service       *portal.Service
	CheckInterval time.Duration
	StaleAfter    time.Duration

	log    *logrus.Logger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionMonitor creates a monitor with a 5 minute interval and a
// 10 hour threshold.
func NewSessionMonitor(svc *portal.Service, log *logrus.Logger) *SessionMonitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionMonitor{
		Service:       svc,
		CheckInterval: 5 * time.Minute,
		StaleAfter:    10 * time.Hour,
		log:           log,
		now:           time.Now,
	}
}

// Start begins the monitor.
func (m *SessionMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CheckInterval <= 0 {
		m.log.Info("session monitor disabled")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run(m.ticker, m.stop)

	m.log.WithFields(logrus.Fields{
		"interval":    m.CheckInterval.String(),
		"stale_after": m.StaleAfter.String(),
	}).Info("session monitor started")
}

// Stop stops the monitor and waits for a running check to finish.
func (m *SessionMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.ticker = nil
	m.log.Info("session monitor stopped")
}

func (m *SessionMonitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-ticker.C:
			m.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one check and returns the sessions open past the
// threshold.
func (m *SessionMonitor) RunNow(ctx context.Context) []terminal.Session {
	open, err := m.Service.OpenSessions(ctx)
	if err != nil {
		m.log.WithError(err).Error("session monitor: list open sessions")
		return nil
	}

	now := m.now()
	var stale []terminal.Session
	for _, s := range open {
		openFor := s.OpenFor(now)
		if openFor < m.StaleAfter {
			continue
		}
		stale = append(stale, s)
		m.log.WithFields(logrus.Fields{
			"employee_id": s.EmployeeID,
			"session_id":  s.ID,
			"day":         s.Day.String(),
			"state":       s.State,
			"open_for":    openFor.Round(time.Minute).String(),
		}).Warn("terminal session still open")
	}
	return stale
}
