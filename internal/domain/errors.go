package domain

import "errors"

var (
	// Validation errors
	ErrEmptyListName = errors.New("list name cannot be empty")
	ErrEmptyTaskText = errors.New("task text cannot be empty")
	ErrListExists    = errors.New("list already exists")

	// Lookup errors
	ErrListNotFound  = errors.New("list not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrDuplicateTask = errors.New("task id already present in list")

	// Delete/undo protocol errors
	ErrNothingPending = errors.New("no deletion awaiting confirmation")
	ErrUndoEmpty      = errors.New("nothing to undo")

	// Persistence errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
)
