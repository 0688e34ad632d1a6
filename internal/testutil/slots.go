package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotUnavailable is returned by FailingSlot
var ErrSlotUnavailable = errors.New("slot unavailable")

// FailingSlot is a slot repository whose every call fails
type FailingSlot struct {
	mu       sync.Mutex
	attempts int
}

func (f *FailingSlot) Save(context.Context, []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	return ErrSlotUnavailable
}

func (f *FailingSlot) Load(context.Context) ([]byte, error) {
	return nil, ErrSlotUnavailable
}

// Attempts reports how many saves were tried
func (f *FailingSlot) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *FailingSlot) Close() error {
	return nil
}
