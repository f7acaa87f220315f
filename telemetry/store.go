// Package telemetry persists one row per executed Task to Postgres (turn
// number, behavior, goal kind, priority, chosen hero, outcome) and hands
// out globally unique turn-trace IDs via a DynamoDB counter, so multiple
// concurrently-running AI workers' turns can be correlated after the fact.
//
// Grounded on database/db.go's DB.Run/RdsConnect wiring
// (sql.OpenDB/sqlx.NewDb(conn, "pgx")) and database/counter.go's
// reserve-a-block DynamoDB counter, repurposed from a board-game server's
// player/game/hand ID allocator to a turn-trace ID allocator.
package telemetry

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"

	"github.com/nullkiller/aicore/config"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/log"
)

// TaskRecord is one executed (or attempted) Task, as persisted.
type TaskRecord struct {
	TraceID   int       `db:"trace_id"`
	Turn      int       `db:"turn"`
	Behavior  string    `db:"behavior"`
	GoalKind  string    `db:"goal_kind"`
	Priority  float64   `db:"priority"`
	HeroID    int       `db:"hero_id"`
	HasHero   bool      `db:"has_hero"`
	Outcome   string    `db:"outcome"`
	Recorded  time.Time `db:"recorded_at"`
}

const (
	OutcomeExecuted  = "executed"
	OutcomeFulfilled = "fulfilled"
	OutcomeFailed    = "failed"
)

// Store is the Postgres-backed telemetry sink for one AI worker process.
type Store struct {
	db      *sqlx.DB
	counter *TraceCounter
}

// Open connects to Postgres via IAM-authenticated RDS using dsn, pairing
// the connection with counter for trace-ID allocation.
func Open(dsn config.Profile, counter *TraceCounter) (*Store, error) {
	db, err := connect(dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, counter: counter}, nil
}

// schema matches the table a deployment is expected to have already
// migrated; telemetry never creates it, it only inserts.
const insertTaskSQL = `
INSERT INTO turn_tasks (trace_id, turn, behavior, goal_kind, priority, hero_id, has_hero, outcome, recorded_at)
VALUES (:trace_id, :turn, :behavior, :goal_kind, :priority, :hero_id, :has_hero, :outcome, :recorded_at)
`

// RecordTask allocates a trace ID and persists one row describing task as
// chosen (or attempted) during turn, tagged with behaviorName and outcome.
// now is passed in rather than read with time.Now so callers can stamp a
// deterministic time in tests.
func (s *Store) RecordTask(turn int, behaviorName string, task goal.Task, outcome string, now time.Time) error {
	traceID, err := s.counter.NextID()
	if err != nil {
		return xerrors.Errorf("telemetry: allocating trace id: %w", err)
	}

	record := TaskRecord{
		TraceID:  traceID,
		Turn:     turn,
		Behavior: behaviorName,
		GoalKind: task.Goal.Kind.String(),
		Priority: task.Priority,
		HeroID:   task.Goal.HeroID,
		HasHero:  task.Goal.HasHero,
		Outcome:  outcome,
		Recorded: now,
	}

	if _, err := s.db.NamedExec(insertTaskSQL, record); err != nil {
		return xerrors.Errorf("telemetry: recording task: %w", err)
	}

	log.Debug("telemetry: recorded trace %d turn %d behavior %s goal %s outcome %s",
		traceID, turn, behaviorName, record.GoalKind, outcome)
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("telemetry: closing store: %w", err)
	}
	return nil
}
