// Package filestore keeps the snapshot slot in a single JSON file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmehra2102/tasklists/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SlotRepository struct {
	path   string
	tracer trace.Tracer
}

func NewSlotRepository(path string) *SlotRepository {
	return &SlotRepository{
		path:   path,
		tracer: otel.Tracer("filestore-repository"),
	}
}

func (r *SlotRepository) Path() string {
	return r.path
}

// Save writes data to a temporary file next to the slot and renames it
// over the slot, so readers never observe a partial snapshot.
func (r *SlotRepository) Save(ctx context.Context, data []byte) error {
	_, span := r.tracer.Start(ctx, "repository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("file.path", r.path),
		attribute.Int("snapshot.bytes", len(data)),
	)

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		span.RecordError(err)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		span.RecordError(err)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

func (r *SlotRepository) Load(ctx context.Context) ([]byte, error) {
	_, span := r.tracer.Start(ctx, "repository.Load")
	defer span.End()

	span.SetAttributes(attribute.String("file.path", r.path))

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, domain.ErrSnapshotNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if len(data) == 0 {
		span.SetAttributes(attribute.Bool("not_found", true))
		return nil, domain.ErrSnapshotNotFound
	}

	return data, nil
}

func (r *SlotRepository) Close() error {
	return nil
}
