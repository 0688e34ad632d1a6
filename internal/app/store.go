package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/dmehra2102/tasklists/internal/interceptors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultUndoWindow is how long a deleted task stays restorable
const DefaultUndoWindow = 5 * time.Second

type taskRef struct {
	listID string
	taskID int64
}

// Store owns every list and task, mirrors each mutation into the slot
// repository and notifies subscribers with a fresh snapshot.
//
// Invalid input never produces an error: operations report through their
// boolean result whether anything changed.
type Store struct {
	repo       domain.SlotRepository
	logger     *zap.Logger
	tracer     trace.Tracer
	clock      Clock
	metrics    *interceptors.Metrics
	chain      interceptors.Interceptor
	undoWindow time.Duration

	mu      sync.Mutex
	state   *domain.Snapshot
	ids     *idGenerator
	pending *taskRef
	undo    *domain.Task
	undoGen uint64
	timer   Timer

	subMu   sync.Mutex
	subs    map[int]func(*domain.Snapshot)
	nextSub int
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func WithUndoWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.undoWindow = d
		}
	}
}

func WithMetrics(m *interceptors.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore loads the persisted snapshot from repo. A missing, unreadable or
// invalid snapshot is replaced by the default lists; startup never fails.
func NewStore(ctx context.Context, repo domain.SlotRepository, opts ...Option) *Store {
	s := &Store{
		repo:       repo,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("tasklists-store"),
		clock:      SystemClock(),
		undoWindow: DefaultUndoWindow,
		subs:       make(map[int]func(*domain.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = interceptors.NewMetrics(nil)
	}

	s.chain = interceptors.Chain(
		interceptors.RecoveryInterceptor(s.logger),
		interceptors.LoggingInterceptor(s.logger),
		s.metrics.Interceptor(),
	)

	s.state = s.load(ctx)
	s.ids = newIDGenerator(s.clock, s.state.MaxTaskID())
	s.observe()

	return s
}

func (s *Store) load(ctx context.Context) *domain.Snapshot {
	ctx, span := s.tracer.Start(ctx, "store.Load")
	defer span.End()

	data, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Info("no saved snapshot, starting with default lists")
			return domain.DefaultSnapshot()
		}
		span.RecordError(err)
		s.logger.Warn("failed to load snapshot, starting with default lists", zap.Error(err))
		return domain.DefaultSnapshot()
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		s.logger.Warn("discarding unreadable snapshot", zap.Error(err))
		return domain.DefaultSnapshot()
	}
	if err := snap.Validate(); err != nil {
		span.RecordError(err)
		s.logger.Warn("discarding invalid snapshot", zap.Error(err))
		return domain.DefaultSnapshot()
	}
	snap.Normalize()

	span.SetAttributes(
		attribute.Int("store.lists", len(snap.Lists)),
		attribute.Int("store.tasks", snap.TaskCount()),
	)
	s.logger.Info("snapshot loaded",
		zap.Int("lists", len(snap.Lists)),
		zap.Int("tasks", snap.TaskCount()),
	)

	return &snap
}

// CreateList adds an empty list named name. Names whose derived id is
// already taken are rejected.
func (s *Store) CreateList(ctx context.Context, name string) bool {
	return s.run(ctx, "CreateList", func(ctx context.Context) (interceptors.Outcome, error) {
		list, err := domain.NewList(name)
		if err != nil {
			return interceptors.OutcomeIgnored, err
		}
		if err := s.state.Add(list); err != nil {
			return interceptors.OutcomeIgnored, err
		}

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// AddTask appends a new uncompleted task to the list
func (s *Store) AddTask(ctx context.Context, listID, text string) bool {
	return s.run(ctx, "AddTask", func(ctx context.Context) (interceptors.Outcome, error) {
		list := s.state.Find(listID)
		if list == nil {
			return interceptors.OutcomeIgnored, domain.ErrListNotFound
		}

		task, err := domain.NewTask(s.ids.Next(), listID, text)
		if err != nil {
			return interceptors.OutcomeIgnored, err
		}
		if err := list.AppendTask(task); err != nil {
			return interceptors.OutcomeIgnored, err
		}

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// ToggleTask flips a task's completion state
func (s *Store) ToggleTask(ctx context.Context, listID string, taskID int64) bool {
	return s.run(ctx, "ToggleTask", func(ctx context.Context) (interceptors.Outcome, error) {
		task, err := s.findTask(listID, taskID)
		if err != nil {
			return interceptors.OutcomeIgnored, err
		}

		task.Toggle(s.clock.Now())

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// ToggleListCollapsed flips a list's collapsed view flag
func (s *Store) ToggleListCollapsed(ctx context.Context, listID string) bool {
	return s.run(ctx, "ToggleListCollapsed", func(ctx context.Context) (interceptors.Outcome, error) {
		list := s.state.Find(listID)
		if list == nil {
			return interceptors.OutcomeIgnored, domain.ErrListNotFound
		}

		list.Collapsed = !list.Collapsed

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// RequestDelete stages a task for deletion. Nothing is removed until
// ConfirmDelete; a later request replaces the staged task.
func (s *Store) RequestDelete(ctx context.Context, listID string, taskID int64) bool {
	return s.run(ctx, "RequestDelete", func(ctx context.Context) (interceptors.Outcome, error) {
		if _, err := s.findTask(listID, taskID); err != nil {
			return interceptors.OutcomeIgnored, err
		}

		s.pending = &taskRef{listID: listID, taskID: taskID}
		return interceptors.OutcomeApplied, nil
	})
}

// ConfirmDelete removes the staged task and keeps it in the undo buffer
// until the undo window elapses.
func (s *Store) ConfirmDelete(ctx context.Context) bool {
	return s.run(ctx, "ConfirmDelete", func(ctx context.Context) (interceptors.Outcome, error) {
		ref := s.pending
		if ref == nil {
			return interceptors.OutcomeIgnored, domain.ErrNothingPending
		}
		s.pending = nil

		list := s.state.Find(ref.listID)
		if list == nil {
			return interceptors.OutcomeIgnored, domain.ErrListNotFound
		}
		removed, err := list.RemoveTask(ref.taskID)
		if err != nil {
			return interceptors.OutcomeIgnored, err
		}

		s.undo = removed
		s.restartUndoTimer()

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// CancelDelete drops the staged task without touching any list
func (s *Store) CancelDelete(ctx context.Context) bool {
	return s.run(ctx, "CancelDelete", func(ctx context.Context) (interceptors.Outcome, error) {
		if s.pending == nil {
			return interceptors.OutcomeIgnored, domain.ErrNothingPending
		}

		s.pending = nil
		return interceptors.OutcomeApplied, nil
	})
}

// Undo re-appends the most recently deleted task to the end of its list
func (s *Store) Undo(ctx context.Context) bool {
	return s.run(ctx, "Undo", func(ctx context.Context) (interceptors.Outcome, error) {
		task := s.undo
		if task == nil {
			return interceptors.OutcomeIgnored, domain.ErrUndoEmpty
		}
		s.undo = nil
		s.stopUndoTimer()
		s.observe()

		list := s.state.Find(task.List)
		if list == nil {
			return interceptors.OutcomeIgnored, domain.ErrListNotFound
		}
		if err := list.AppendTask(task); err != nil {
			return interceptors.OutcomeIgnored, err
		}

		s.commit(ctx)
		return interceptors.OutcomeApplied, nil
	})
}

// restartUndoTimer replaces any outstanding expiry timer. The generation
// stamp keeps a timer that already fired from clearing a newer deletion.
func (s *Store) restartUndoTimer() {
	s.stopUndoTimer()
	s.undoGen++
	gen := s.undoGen
	s.timer = s.clock.AfterFunc(s.undoWindow, func() {
		s.expireUndo(gen)
	})
}

func (s *Store) stopUndoTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) expireUndo(gen uint64) {
	s.run(context.Background(), "ExpireUndo", func(ctx context.Context) (interceptors.Outcome, error) {
		if s.undo == nil || s.undoGen != gen {
			return interceptors.OutcomeIgnored, domain.ErrUndoEmpty
		}

		s.undo = nil
		s.timer = nil
		s.observe()
		return interceptors.OutcomeApplied, nil
	})
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// List returns a copy of the list with the given id
func (s *Store) List(id string) (*domain.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.state.Find(id)
	if list == nil {
		return nil, false
	}
	return list.Clone(), true
}

// PendingDeletion returns the task awaiting confirmation, if any
func (s *Store) PendingDeletion() (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, false
	}
	task, err := s.findTask(s.pending.listID, s.pending.taskID)
	if err != nil {
		return nil, false
	}
	return task.Clone(), true
}

// UndoAvailable returns the task that Undo would restore, if any
func (s *Store) UndoAvailable() (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.undo == nil {
		return nil, false
	}
	return s.undo.Clone(), true
}

func (s *Store) UndoWindow() time.Duration {
	return s.undoWindow
}

// Subscribe registers fn to receive the state after every change. The
// snapshot handed to fn is shared between subscribers and must not be
// modified. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(*domain.Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Close stops the undo timer and forgets any staged or buffered deletion
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopUndoTimer()
	s.undo = nil
	s.pending = nil
}

func (s *Store) run(ctx context.Context, op string, fn interceptors.Handler) bool {
	ctx, span := s.tracer.Start(ctx, "store."+op)
	defer span.End()

	s.mu.Lock()
	outcome, reason := s.chain(ctx, &interceptors.OperationInfo{Operation: op}, fn)
	var snap *domain.Snapshot
	if outcome == interceptors.OutcomeApplied {
		snap = s.state.Clone()
	}
	s.mu.Unlock()

	span.SetAttributes(attribute.String("store.outcome", string(outcome)))
	if reason != nil {
		span.SetAttributes(attribute.String("store.reason", reason.Error()))
	}

	if snap != nil {
		s.notify(snap)
	}
	return outcome == interceptors.OutcomeApplied
}

// commit persists the whole snapshot. A failed write is logged and the
// in-memory state stays authoritative.
func (s *Store) commit(ctx context.Context) {
	s.observe()

	operationID, _ := interceptors.OperationIDFromContext(ctx)

	data, err := json.Marshal(s.state)
	if err != nil {
		s.metrics.PersistFailed()
		s.logger.Error("failed to encode snapshot",
			zap.String("operation_id", operationID),
			zap.Error(err),
		)
		return
	}

	if err := s.repo.Save(ctx, data); err != nil {
		s.metrics.PersistFailed()
		s.logger.Warn("failed to persist snapshot, keeping in-memory state",
			zap.String("operation_id", operationID),
			zap.Error(err),
		)
	}
}

func (s *Store) observe() {
	s.metrics.ObserveState(len(s.state.Lists), s.state.TaskCount(), s.undo != nil)
}

func (s *Store) findTask(listID string, taskID int64) (*domain.Task, error) {
	list := s.state.Find(listID)
	if list == nil {
		return nil, domain.ErrListNotFound
	}
	_, task := list.FindTask(taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *Store) notify(snap *domain.Snapshot) {
	s.subMu.Lock()
	fns := make([]func(*domain.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
