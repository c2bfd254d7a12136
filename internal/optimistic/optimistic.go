// Package optimistic applies mutations to a cache entry before the store
// confirms them, then reconciles or rolls back when the store answers.
//
// A single helper, Run, implements the capture/apply/dispatch/reconcile/
// rollback sequence for every mutation type. Each mutation names the entity
// it touches; a per-entity version stamp makes sure that only the most
// recently issued mutation of an entity decides its final state.
package optimistic

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Entry is a cache value replaced as a whole. Every replacement bumps a
// revision so a rollback can tell whether anyone wrote the entry since.
type Entry[T any] interface {
	// Update atomically replaces the value with fn(current). It returns the
	// value before the update and the revision after it.
	Update(fn func(T) T) (prev T, rev uint64)

	// Restore replaces the value with v only if the entry is still at
	// revision rev. It reports whether the value was replaced.
	Restore(rev uint64, v T) bool
}

// Mutation describes one optimistic change to an Entry[T] whose store
// request yields R.
type Mutation[T, R any] struct {
	// Entity identifies what the mutation touches, e.g. a cell or a row.
	Entity string

	// Apply is the local effect. It must not mutate its argument and
	// should be idempotent: it is re-applied to data arriving from the
	// store while the request is in flight.
	Apply func(T) T

	// Request performs the store call.
	Request func(ctx context.Context) (R, error)

	// Reconcile folds the store result into the current value, e.g. to
	// rewrite a temporary ID. Optional.
	Reconcile func(T, R) T

	// Revert undoes Apply on a value that was written by someone else after
	// Apply. Used only when the exact snapshot cannot be restored. Optional.
	Revert func(T) T
}

// Outcome describes how a mutation ended.
type Outcome int

const (
	// Confirmed: the store accepted the mutation.
	Confirmed Outcome = iota
	// RolledBack: the store rejected it and the snapshot was restored.
	RolledBack
	// Reverted: the store rejected it and Revert was applied.
	Reverted
	// Superseded: a newer mutation of the same entity was issued; this
	// result was discarded.
	Superseded
	// Diverged: the store rejected it and the local value could not be
	// undone safely, either because no Revert was given or because an
	// older mutation of the same entity also failed. The caller should
	// refetch.
	Diverged
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled-back"
	case Reverted:
		return "reverted"
	case Superseded:
		return "superseded"
	case Diverged:
		return "diverged"
	}
	return "unknown"
}

type pending[T any] struct {
	seq    uint64
	entity string
	apply  func(T) T
}

// Layer tracks in-flight mutations of one Entry.
type Layer[T any] struct {
	entry Entry[T]
	log   *zap.Logger

	mu       sync.Mutex
	seq      uint64
	versions map[string]uint64
	tainted  map[string]bool
	inflight []*pending[T]
}

// NewLayer creates a layer over entry. A nil logger disables logging.
func NewLayer[T any](entry Entry[T], log *zap.Logger) *Layer[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Layer[T]{
		entry:    entry,
		log:      log,
		versions: make(map[string]uint64),
		tainted:  make(map[string]bool),
	}
}

// Overlay re-applies every in-flight mutation to v, in issue order. The
// entry calls it when it installs data fetched from the store.
func (l *Layer[T]) Overlay(v T) T {
	l.mu.Lock()
	ops := append([]*pending[T](nil), l.inflight...)
	l.mu.Unlock()
	for _, op := range ops {
		v = op.apply(v)
	}
	return v
}

// Pending returns the number of in-flight mutations.
func (l *Layer[T]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

// begin stamps a new version for entity and registers op as in flight.
// Called from inside Entry.Update, so the entry's lock is held.
func (l *Layer[T]) begin(entity string, apply func(T) T) *pending[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	op := &pending[T]{seq: l.seq, entity: entity, apply: apply}
	l.versions[entity] = op.seq
	l.inflight = append(l.inflight, op)
	return op
}

// finish unregisters op. latest reports whether op is still the newest
// mutation of its entity; tainted reports whether an older mutation of the
// entity failed while op was in flight, which leaves op's snapshot holding
// a value the store never accepted.
func (l *Layer[T]) finish(op *pending[T], failed bool) (latest, tainted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, p := range l.inflight {
		if p == op {
			l.inflight = append(l.inflight[:i:i], l.inflight[i+1:]...)
			break
		}
	}
	v, ok := l.versions[op.entity]
	if ok && v == op.seq {
		delete(l.versions, op.entity)
		tainted = l.tainted[op.entity]
		delete(l.tainted, op.entity)
		return true, tainted
	}
	if failed && ok {
		l.tainted[op.entity] = true
	}
	return false, false
}

// Run executes m against the layer's entry: the local effect is visible
// before Request is called. Run blocks until the store answers.
func Run[T, R any](ctx context.Context, l *Layer[T], m Mutation[T, R]) (R, Outcome, error) {
	return Start(l, m)(ctx)
}

// Start applies m locally and returns the function that dispatches the
// request and settles the mutation. Callers that must not block apply on
// their own goroutine and hand the returned function to a worker.
func Start[T, R any](l *Layer[T], m Mutation[T, R]) func(ctx context.Context) (R, Outcome, error) {
	var op *pending[T]
	snapshot, rev := l.entry.Update(func(cur T) T {
		op = l.begin(m.Entity, m.Apply)
		return m.Apply(cur)
	})
	return func(ctx context.Context) (R, Outcome, error) {
		return settle(ctx, l, m, op, snapshot, rev)
	}
}

func settle[T, R any](ctx context.Context, l *Layer[T], m Mutation[T, R], op *pending[T], snapshot T, rev uint64) (R, Outcome, error) {
	result, err := m.Request(ctx)
	latest, tainted := l.finish(op, err != nil)

	if !latest {
		l.log.Debug("discarding superseded mutation result",
			zap.String("entity", m.Entity), zap.Error(err))
		return result, Superseded, err
	}

	if err == nil {
		if m.Reconcile != nil {
			l.entry.Update(func(cur T) T { return m.Reconcile(cur, result) })
		}
		return result, Confirmed, nil
	}

	outcome := RolledBack
	if tainted || !l.entry.Restore(rev, snapshot) {
		if m.Revert != nil && !tainted {
			l.entry.Update(m.Revert)
			outcome = Reverted
		} else {
			outcome = Diverged
		}
	}
	l.log.Error("mutation failed, local change undone",
		zap.String("entity", m.Entity),
		zap.Stringer("outcome", outcome),
		zap.Error(err))
	return result, outcome, err
}
