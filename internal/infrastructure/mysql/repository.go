// Package mysql keeps the snapshot slot in a MySQL table.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultQueryTimeout = 5 * time.Second

// ER_NO_SUCH_TABLE
const errNoSuchTable = 1146

type SlotRepository struct {
	db           *sql.DB
	key          string
	queryTimeout time.Duration
	tracer       trace.Tracer
}

// Open connects to dsn, forcing parseTime so DATETIME columns scan into time.Time
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func NewSlotRepository(db *sql.DB, key string, queryTimeout time.Duration) *SlotRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &SlotRepository{
		db:           db,
		key:          key,
		queryTimeout: queryTimeout,
		tracer:       otel.Tracer("mysql-repository"),
	}
}

// Migrate creates the slot table if needed
func (r *SlotRepository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `CREATE TABLE IF NOT EXISTS kv_slots (
    slot_key VARCHAR(191) PRIMARY KEY,
    value LONGTEXT NOT NULL,
    updated_at DATETIME(3) NOT NULL
) DEFAULT CHARSET=utf8mb4`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create kv_slots: %w", err)
	}
	return nil
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
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)
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

	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE slot_key = ?`, r.key).Scan(&value)
	if err != nil {
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

func describe(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errNoSuchTable {
		return fmt.Errorf("kv_slots table missing, run migrations: %w", err)
	}
	return err
}
