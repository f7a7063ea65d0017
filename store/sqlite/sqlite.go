/*
Package sqlite provides a SQLite-backed implementation of portal.Store.

PURPOSE:
  Persists the three policy layers, employees, absences and terminal
  sessions. The Default layer lives in a single-row table; group and
  individual layers use nullable columns where NULL means "inherit".

KEY TABLES:
  default_policy:    the one Default layer (id = 1, all columns NOT NULL)
  employee_groups:   groups with their policy layer
  employees:         employee records; group_id is SET NULL on group delete
  employee_policies: individual layer, one row per customised employee
  absences:          absence intervals per employee
  sessions:          terminal sessions, unique per (employee, day)

MIGRATIONS:
  The schema is versioned with goose; the SQL files are embedded from
  migrations/ and applied on New().

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  In-memory databases are pinned to a single connection, otherwise each
  pooled connection would see its own empty database.

USAGE:
  store, err := sqlite.New("./data/hrportal.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - portal/store.go: interface definitions
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Store implements portal.Store using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *logrus.Logger
}

var _ portal.Store = (*Store)(nil)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, log: log}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("path", dbPath).Debug("sqlite store ready")
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded goose migrations.
func (s *Store) migrate() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(s.log)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (s *Store) Version() (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db)
}

// =============================================================================
// POLICY COLUMNS
// =============================================================================

const policyColumns = `vacation_days, daily_hours, has_flextime, holiday_region,
	min_break_time, can_work_remote, can_self_approve`

// policyArgs flattens a layer into column values; unset fields become NULL.
func policyArgs(p settings.WorkPolicy) []any {
	return []any{
		nullable(p.VacationDays),
		nullable(p.DailyHours),
		nullable(p.HasFlextime),
		nullable(p.HolidayRegion),
		nullable(p.MinBreakTime),
		nullable(p.CanWorkRemote),
		nullable(p.CanSelfApprove),
	}
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// policyRow scans the policy columns.
type policyRow struct {
	vacationDays   sql.NullInt64
	dailyHours     decimal.NullDecimal
	hasFlextime    sql.NullBool
	holidayRegion  sql.NullString
	minBreakTime   sql.NullInt64
	canWorkRemote  sql.NullBool
	canSelfApprove sql.NullBool
}

func (r *policyRow) dest() []any {
	return []any{
		&r.vacationDays, &r.dailyHours, &r.hasFlextime, &r.holidayRegion,
		&r.minBreakTime, &r.canWorkRemote, &r.canSelfApprove,
	}
}

func (r *policyRow) policy() settings.WorkPolicy {
	var p settings.WorkPolicy
	if r.vacationDays.Valid {
		p.VacationDays = settings.Ptr(int(r.vacationDays.Int64))
	}
	if r.dailyHours.Valid {
		p.DailyHours = settings.Ptr(r.dailyHours.Decimal)
	}
	if r.hasFlextime.Valid {
		p.HasFlextime = settings.Ptr(r.hasFlextime.Bool)
	}
	if r.holidayRegion.Valid {
		p.HolidayRegion = settings.Ptr(r.holidayRegion.String)
	}
	if r.minBreakTime.Valid {
		p.MinBreakTime = settings.Ptr(int(r.minBreakTime.Int64))
	}
	if r.canWorkRemote.Valid {
		p.CanWorkRemote = settings.Ptr(r.canWorkRemote.Bool)
	}
	if r.canSelfApprove.Valid {
		p.CanSelfApprove = settings.Ptr(r.canSelfApprove.Bool)
	}
	return p
}

// =============================================================================
// DEFAULT POLICY
// =============================================================================

// GetDefaultPolicy returns the Default layer or portal.ErrNotFound.
func (s *Store) GetDefaultPolicy(ctx context.Context) (settings.WorkPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row policyRow
	err := s.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM default_policy WHERE id = 1",
	).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.WorkPolicy{}, portal.ErrNotFound
	}
	if err != nil {
		return settings.WorkPolicy{}, err
	}
	return row.policy(), nil
}

// SaveDefaultPolicy replaces the Default layer in one statement.
func (s *Store) SaveDefaultPolicy(ctx context.Context, p settings.WorkPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE default_policy SET
			vacation_days = ?, daily_hours = ?, has_flextime = ?, holiday_region = ?,
			min_break_time = ?, can_work_remote = ?, can_self_approve = ?,
			updated_at = ?
		WHERE id = 1
	`
	args := append(policyArgs(p), now())
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save default policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return portal.ErrNotFound
	}
	return nil
}

// InitDefaultPolicy inserts the Default layer unless one exists.
func (s *Store) InitDefaultPolicy(ctx context.Context, p settings.WorkPolicy) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO default_policy (id, ` + policyColumns + `, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	args := append(policyArgs(p), now())
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to initialise default policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v.String)
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
