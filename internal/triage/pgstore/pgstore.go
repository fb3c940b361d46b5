// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/dispatch/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const triageColumns = `id, fingerprint, status, alert_name, severity, resource_id, summary,
	verdict, routing, error, created_at, completed_at, duration_s, tokens_used, model`

// Get retrieves a triage result by ID.
//
//nolint:dupl // similar structure to GetByFingerprint is intentional
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE id = $1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// GetByFingerprint retrieves the most recent triage result for a fingerprint.
//
//nolint:dupl // similar structure to Get is intentional
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetByFingerprint", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, fingerprint))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Put inserts or updates a triage result.
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	var verdictJSON []byte
	if r.Verdict != nil {
		b, err := json.Marshal(r.Verdict)
		if err != nil {
			return fmt.Errorf("marshal verdict: %w", err)
		}
		verdictJSON = b
	}

	var routingJSON []byte
	if r.Routing != nil {
		b, err := json.Marshal(r.Routing)
		if err != nil {
			return fmt.Errorf("marshal routing: %w", err)
		}
		routingJSON = b
	}

	var completedAt *time.Time
	if !r.CompletedAt.IsZero() {
		completedAt = &r.CompletedAt
	}

	query := `INSERT INTO triage_runs (
		id, fingerprint, status, alert_name, severity, resource_id, summary,
		verdict, routing, error, created_at, completed_at, duration_s, tokens_used, model
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	ON CONFLICT (id) DO UPDATE SET
		fingerprint  = EXCLUDED.fingerprint,
		status       = EXCLUDED.status,
		alert_name   = EXCLUDED.alert_name,
		severity     = EXCLUDED.severity,
		resource_id  = EXCLUDED.resource_id,
		summary      = EXCLUDED.summary,
		verdict      = EXCLUDED.verdict,
		routing      = EXCLUDED.routing,
		error        = EXCLUDED.error,
		completed_at = EXCLUDED.completed_at,
		duration_s   = EXCLUDED.duration_s,
		tokens_used  = EXCLUDED.tokens_used,
		model        = EXCLUDED.model`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Fingerprint, string(r.Status), r.Alert, r.Severity, r.Resource, r.Summary,
		verdictJSON, routingJSON, r.Error, r.CreatedAt, completedAt, r.Duration, r.TokensUsed, r.Model,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage: %w", err)
	}
	return nil
}

// scanTriageRow scans a single row into a triage.Result.
// Returns (nil, nil) when no row is found.
func scanTriageRow(row pgx.Row) (*triage.Result, error) {
	var (
		r           triage.Result
		status      string
		verdictJSON []byte
		routingJSON []byte
		completedAt *time.Time
	)

	err := row.Scan(
		&r.ID, &r.Fingerprint, &status, &r.Alert, &r.Severity, &r.Resource, &r.Summary,
		&verdictJSON, &routingJSON, &r.Error, &r.CreatedAt, &completedAt, &r.Duration,
		&r.TokensUsed, &r.Model,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.Status(status)

	if completedAt != nil {
		r.CompletedAt = *completedAt
	}

	if len(verdictJSON) > 0 {
		var v classify.Verdict
		if err := json.Unmarshal(verdictJSON, &v); err != nil {
			return nil, fmt.Errorf("unmarshal verdict: %w", err)
		}
		r.Verdict = &v
	}

	if len(routingJSON) > 0 {
		if err := json.Unmarshal(routingJSON, &r.Routing); err != nil {
			return nil, fmt.Errorf("unmarshal routing: %w", err)
		}
	}

	return &r, nil
}
