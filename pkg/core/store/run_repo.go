package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quantval/pkg/core/dcf"
)

// RunKind tags what kind of analysis produced a stored run.
type RunKind string

const (
	RunDCF         RunKind = "dcf"
	RunSensitivity RunKind = "sensitivity"
	RunScenarios   RunKind = "scenarios"
	RunMonteCarlo  RunKind = "montecarlo"
)

// ValuationRun is a persisted analysis run. Result holds the kind-specific
// payload as it was returned to the caller.
type ValuationRun struct {
	ID         uuid.UUID               `json:"id"`
	Kind       RunKind                 `json:"kind"`
	Label      string                  `json:"label"`
	Parameters dcf.ValuationParameters `json:"parameters"`
	Result     json.RawMessage         `json:"result"`
	CreatedAt  time.Time               `json:"created_at"`
}

// RunRepo handles the storage of valuation runs.
type RunRepo struct{}

// NewRunRepo creates a new repository instance.
func NewRunRepo() *RunRepo {
	return &RunRepo{}
}

// Save persists one analysis run and returns its generated id.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS valuation_runs (
//   id UUID PRIMARY KEY,
//   kind TEXT NOT NULL,
//   label TEXT,
//   params_json JSONB NOT NULL,
//   result_json JSONB NOT NULL,
//   created_at TIMESTAMPTZ NOT NULL
// );
func (r *RunRepo) Save(ctx context.Context, kind RunKind, label string, params dcf.ValuationParameters, result any) (uuid.UUID, error) {
	pool := GetPool()
	if pool == nil {
		return uuid.Nil, fmt.Errorf("database pool not initialized")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO valuation_runs (id, kind, label, params_json, result_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := pool.Exec(ctx, query, id, string(kind), label, paramsJSON, resultJSON, time.Now()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save run: %w", err)
	}
	return id, nil
}

// Load retrieves a single run by id.
func (r *RunRepo) Load(ctx context.Context, id uuid.UUID) (*ValuationRun, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT id, kind, label, params_json, result_json, created_at FROM valuation_runs WHERE id = $1`

	var run ValuationRun
	var paramsJSON []byte
	err := pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Kind, &run.Label, &paramsJSON, &run.Result, &run.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no run found for id %s", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	if err := json.Unmarshal(paramsJSON, &run.Parameters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run parameters: %w", err)
	}
	return &run, nil
}

// Recent lists the most recent runs, newest first.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]ValuationRun, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, label, params_json, result_json, created_at FROM valuation_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []ValuationRun
	for rows.Next() {
		var run ValuationRun
		var paramsJSON []byte
		if err := rows.Scan(&run.ID, &run.Kind, &run.Label, &paramsJSON, &run.Result, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(paramsJSON, &run.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run parameters: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
