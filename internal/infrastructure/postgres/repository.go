package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultQueryTimeout = 5 * time.Second

// undefined_table
const codeUndefinedTable = "42P01"

type SlotRepository struct {
	db           *sql.DB
	key          string
	queryTimeout time.Duration
	tracer       trace.Tracer
}

func NewSlotRepository(db *sql.DB, key string, queryTimeout time.Duration) *SlotRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &SlotRepository{
		db:           db,
		key:          key,
		queryTimeout: queryTimeout,
		tracer:       otel.Tracer("postgres-repository"),
	}
}

func (r *SlotRepository) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", r.key),
		attribute.Int("snapshot.bytes", len(data)),
	)

	query := `
		INSERT INTO kv_slots (slot_key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot_key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, r.key, string(data), time.Now().UTC()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save snapshot: %w", describe(err))
	}

	return nil
}

func (r *SlotRepository) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Load")
	defer span.End()

	span.SetAttributes(attribute.String("slot.key", r.key))

	query := `SELECT value FROM kv_slots WHERE slot_key = $1`

	var value string
	if err := r.db.QueryRowContext(ctx, query, r.key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, domain.ErrSnapshotNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load snapshot: %w", describe(err))
	}

	if value == "" {
		return nil, domain.ErrSnapshotNotFound
	}
	return []byte(value), nil
}

func (r *SlotRepository) Close() error {
	return r.db.Close()
}

// describe adds a hint to driver errors that mean the schema is missing
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeUndefinedTable {
		return fmt.Errorf("kv_slots table missing, run migrations: %w", err)
	}
	return err
}
