package stores

import (
	"context"
	"database/sql"
	"time"

	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/region"
)

// Scenario is a stored scenario document.
type Scenario struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`   // file the document was loaded from
	Document  string    `json:"document"` // JSON blob
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateValue is the last known value of a state.
type StateValue struct {
	ScenarioID string    `json:"scenario_id"`
	ID         string    `json:"id"`
	Value      float64   `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConstraintRecord is a persisted constraint together with its status.
type ConstraintRecord struct {
	ScenarioID string                  `json:"scenario_id"`
	ID         string                  `json:"id"`
	Class      string                  `json:"class"`
	Status     engine.ConstraintStatus `json:"status"`
	Data       constraint.Data         `json:"data"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// RegionRecord is the latest report of a region and the outcome of the
// policy checks run against it.
type RegionRecord struct {
	ScenarioID string                 `json:"scenario_id"`
	RegionID   string                 `json:"region_id"`
	Status     engine.ExtrusionStatus `json:"status"`
	Allowed    bool                   `json:"allowed"`
	Violations int                    `json:"violations"`
	Report     region.Report          `json:"report"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Run records one propagation pass.
type Run struct {
	ID         string        `json:"id"`
	ScenarioID string        `json:"scenario_id"`
	Changed    []string      `json:"changed"`   // states that triggered the run
	Evaluated  []string      `json:"evaluated"` // constraints in evaluation order
	Duration   time.Duration `json:"duration"`
	Error      *string       `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
}

// Event is an append-only log event.
type Event struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	ScenarioID *string   `json:"scenario_id,omitempty"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	ResourceID *string   `json:"resource_id,omitempty"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Data       *string   `json:"data,omitempty"` // JSON blob
	Timestamp  time.Time `json:"timestamp"`
}

// EventQuery filters GetEvents. Nil fields match everything.
type EventQuery struct {
	ScenarioID *string
	Type       *string
	Level      *string
	Limit      int
	Offset     int
}

// Store defines the interface for kernel persistence.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Transactions
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Scenarios
	UpsertScenario(ctx context.Context, scenario *Scenario) error
	GetScenario(ctx context.Context, id string) (*Scenario, error)
	GetScenarioByName(ctx context.Context, name string) (*Scenario, error)
	ListScenarios(ctx context.Context, limit, offset int) ([]*Scenario, error)
	DeleteScenario(ctx context.Context, id string) error

	// States
	SaveStates(ctx context.Context, scenarioID string, values map[string]float64) error
	GetStates(ctx context.Context, scenarioID string) (map[string]float64, error)

	// Constraints
	SaveConstraint(ctx context.Context, record *ConstraintRecord) error
	ListConstraints(ctx context.Context, scenarioID string) ([]*ConstraintRecord, error)

	// Regions
	SaveRegionReport(ctx context.Context, record *RegionRecord) error
	GetRegionReport(ctx context.Context, scenarioID, regionID string) (*RegionRecord, error)
	ListRegionReports(ctx context.Context, scenarioID string) ([]*RegionRecord, error)

	// Runs
	CreateRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, scenarioID string, limit, offset int) ([]*Run, error)

	// Events
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, q EventQuery) ([]*Event, error)
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}
