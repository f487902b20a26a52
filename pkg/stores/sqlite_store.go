package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/openfroyo/brepcore/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 8
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	// Every connection to :memory: opens its own database.
	if cfg.Path == ":memory:" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	return &SQLiteStore{cfg: cfg}, nil
}

// Init opens the database with foreign keys and WAL enabled on every
// connection.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// UpsertScenario inserts a scenario or replaces the document of the one with
// the same name. The stored ID is written back to scenario.
func (s *SQLiteStore) UpsertScenario(ctx context.Context, scenario *Scenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if scenario.CreatedAt.IsZero() {
		scenario.CreatedAt = now
	}
	scenario.UpdatedAt = now

	query := `
		INSERT INTO scenarios (id, name, source, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			document = excluded.document,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		scenario.ID,
		scenario.Name,
		scenario.Source,
		scenario.Document,
		scenario.CreatedAt,
		scenario.UpdatedAt,
	).Scan(&scenario.ID, &scenario.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert scenario: %w", err)
	}

	return nil
}

const scenarioColumns = `id, name, source, document, created_at, updated_at`

func scanScenario(row interface{ Scan(...any) error }) (*Scenario, error) {
	sc := &Scenario{}
	err := row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.Source,
		&sc.Document,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	return sc, err
}

// GetScenario retrieves a scenario by ID
func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*Scenario, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id)
	sc, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, engine.NotFound("scenario", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return sc, nil
}

// GetScenarioByName retrieves a scenario by name
func (s *SQLiteStore) GetScenarioByName(ctx context.Context, name string) (*Scenario, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE name = ?`, name)
	sc, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, engine.NotFound("scenario", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return sc, nil
}

// ListScenarios lists scenarios with pagination, most recently updated first
func (s *SQLiteStore) ListScenarios(ctx context.Context, limit, offset int) ([]*Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios ORDER BY updated_at DESC, name LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []*Scenario{}
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}

	return scenarios, nil
}

// DeleteScenario deletes a scenario and, by cascade, everything recorded for it
func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return engine.NotFound("scenario", id)
	}

	return nil
}

// SaveStates writes state values in one transaction.
func (s *SQLiteStore) SaveStates(ctx context.Context, scenarioID string, values map[string]float64) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO states (scenario_id, id, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scenario_id, id) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare state upsert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, scenarioID, id, values[id], now); err != nil {
			return fmt.Errorf("failed to save state %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit states: %w", err)
	}
	return nil
}

// GetStates returns the stored state values of a scenario.
func (s *SQLiteStore) GetStates(ctx context.Context, scenarioID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, value FROM states WHERE scenario_id = ?`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get states: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var id string
		var v float64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		values[id] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating states: %w", err)
	}

	return values, nil
}

// SaveConstraint inserts or replaces a constraint record
func (s *SQLiteStore) SaveConstraint(ctx context.Context, record *ConstraintRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to encode constraint: %w", err)
	}
	if record.Class == "" {
		record.Class = record.Data.Class
	}
	if record.ID == "" {
		record.ID = record.Data.ID
	}
	record.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO constraints (scenario_id, id, class, status, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id, id) DO UPDATE SET
			class = excluded.class,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ScenarioID,
		record.ID,
		record.Class,
		record.Status,
		string(data),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save constraint: %w", err)
	}

	return nil
}

// ListConstraints lists the constraints of a scenario ordered by ID
func (s *SQLiteStore) ListConstraints(ctx context.Context, scenarioID string) ([]*ConstraintRecord, error) {
	query := `
		SELECT scenario_id, id, class, status, data, updated_at
		FROM constraints
		WHERE scenario_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list constraints: %w", err)
	}
	defer rows.Close()

	records := []*ConstraintRecord{}
	for rows.Next() {
		rec := &ConstraintRecord{}
		var data string
		err := rows.Scan(
			&rec.ScenarioID,
			&rec.ID,
			&rec.Class,
			&rec.Status,
			&data,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return nil, fmt.Errorf("failed to decode constraint %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraints: %w", err)
	}

	return records, nil
}

// SaveRegionReport inserts or replaces the report of a region
func (s *SQLiteStore) SaveRegionReport(ctx context.Context, record *RegionRecord) error {
	report, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to encode region report: %w", err)
	}
	if record.RegionID == "" {
		record.RegionID = record.Report.ID
	}
	if record.Status == "" {
		record.Status = record.Report.Status
	}
	record.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO region_reports (scenario_id, region_id, status, allowed, violations, report, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id, region_id) DO UPDATE SET
			status = excluded.status,
			allowed = excluded.allowed,
			violations = excluded.violations,
			report = excluded.report,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ScenarioID,
		record.RegionID,
		record.Status,
		record.Allowed,
		record.Violations,
		string(report),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save region report: %w", err)
	}

	return nil
}

const regionColumns = `scenario_id, region_id, status, allowed, violations, report, updated_at`

func scanRegion(row interface{ Scan(...any) error }) (*RegionRecord, error) {
	rec := &RegionRecord{}
	var report string
	err := row.Scan(
		&rec.ScenarioID,
		&rec.RegionID,
		&rec.Status,
		&rec.Allowed,
		&rec.Violations,
		&report,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(report), &rec.Report); err != nil {
		return nil, fmt.Errorf("failed to decode region report %s: %w", rec.RegionID, err)
	}
	return rec, nil
}

// GetRegionReport retrieves the report of one region
func (s *SQLiteStore) GetRegionReport(ctx context.Context, scenarioID, regionID string) (*RegionRecord, error) {
	query := `SELECT ` + regionColumns + ` FROM region_reports WHERE scenario_id = ? AND region_id = ?`

	rec, err := scanRegion(s.db.QueryRowContext(ctx, query, scenarioID, regionID))
	if err == sql.ErrNoRows {
		return nil, engine.NotFound("region", regionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region report: %w", err)
	}
	return rec, nil
}

// ListRegionReports lists the region reports of a scenario ordered by region ID
func (s *SQLiteStore) ListRegionReports(ctx context.Context, scenarioID string) ([]*RegionRecord, error) {
	query := `SELECT ` + regionColumns + ` FROM region_reports WHERE scenario_id = ? ORDER BY region_id`

	rows, err := s.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list region reports: %w", err)
	}
	defer rows.Close()

	records := []*RegionRecord{}
	for rows.Next() {
		rec, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region report: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating region reports: %w", err)
	}

	return records, nil
}

// CreateRun creates a new run record
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	changed, err := json.Marshal(nonNil(run.Changed))
	if err != nil {
		return fmt.Errorf("failed to encode changed states: %w", err)
	}
	evaluated, err := json.Marshal(nonNil(run.Evaluated))
	if err != nil {
		return fmt.Errorf("failed to encode evaluated constraints: %w", err)
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	query := `
		INSERT INTO runs (id, scenario_id, changed, evaluated, duration_ms, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.ScenarioID,
		string(changed),
		string(evaluated),
		run.Duration.Milliseconds(),
		run.Error,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// ListRuns lists the runs of a scenario with pagination, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context, scenarioID string, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, scenario_id, changed, evaluated, duration_ms, error, started_at
		FROM runs
		WHERE scenario_id = ?
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, scenarioID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		var changed, evaluated string
		var durationMS int64
		err := rows.Scan(
			&run.ID,
			&run.ScenarioID,
			&changed,
			&evaluated,
			&durationMS,
			&run.Error,
			&run.StartedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(changed), &run.Changed); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(evaluated), &run.Evaluated); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", run.ID, err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// AppendEvent appends a new event to the log
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	// Timestamps are compared as text, so they are all stored in UTC.
	event.Timestamp = event.Timestamp.UTC()

	query := `
		INSERT INTO events (event_id, scenario_id, type, source, resource_id, level, message, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.EventID,
		event.ScenarioID,
		event.Type,
		event.Source,
		event.ResourceID,
		event.Level,
		event.Message,
		event.Data,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}

	event.ID = id
	return nil
}

// GetEvents retrieves events with optional filters and pagination, newest first
func (s *SQLiteStore) GetEvents(ctx context.Context, q EventQuery) ([]*Event, error) {
	if q.Limit <= 0 {
		q.Limit = -1
	}

	query := `
		SELECT id, event_id, scenario_id, type, source, resource_id, level, message, data, timestamp
		FROM events
		WHERE (? IS NULL OR scenario_id = ?)
		  AND (? IS NULL OR type = ?)
		  AND (? IS NULL OR level = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query,
		q.ScenarioID, q.ScenarioID,
		q.Type, q.Type,
		q.Level, q.Level,
		q.Limit, q.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.ScenarioID,
			&event.Type,
			&event.Source,
			&event.ResourceID,
			&event.Level,
			&event.Message,
			&event.Data,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// DeleteEventsBefore prunes the event log
func (s *SQLiteStore) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// HealthCheck verifies the database is reachable
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

var _ Store = (*SQLiteStore)(nil)
