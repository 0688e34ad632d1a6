package domain

import "context"

// SlotRepository persists the serialized snapshot into a single key-value slot.
// Writes are last-write-wins; there is no schema validation at this layer.
type SlotRepository interface {
	// Save replaces the slot contents
	Save(ctx context.Context, data []byte) error

	// Load returns the slot contents, or ErrSnapshotNotFound when the slot is empty
	Load(ctx context.Context) ([]byte, error)

	// Close releases the underlying resources
	Close() error
}
