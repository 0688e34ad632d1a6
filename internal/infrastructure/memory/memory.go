// Package memory is a process-local snapshot slot, used for ephemeral
// sessions and as a test double.
package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/tasklists/internal/domain"
)

type SlotRepository struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

// NewSlotRepositoryWith returns a slot pre-filled with data
func NewSlotRepositoryWith(data []byte) *SlotRepository {
	return &SlotRepository{data: append([]byte(nil), data...)}
}

func (r *SlotRepository) Save(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append([]byte(nil), data...)
	r.saves++
	return nil
}

func (r *SlotRepository) Load(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.data) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}
	return append([]byte(nil), r.data...), nil
}

// Saves reports how many times the slot was written
func (r *SlotRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *SlotRepository) Close() error {
	return nil
}
