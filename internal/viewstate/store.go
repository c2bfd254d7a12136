package viewstate

import (
	"slices"
	"sync"
)

// Change describes one transition of the store.
type Change struct {
	Old, New ViewState

	// SignatureChanged is true when the page cache must be reset.
	SignatureChanged bool

	// LayoutChanged is true when sort, filters or hidden fields changed,
	// which resets the scroll position to row 0.
	LayoutChanged bool

	// Seq numbers changes in the order they were made. Subscribers run
	// outside the store lock, so concurrent updates may be delivered out
	// of order; a subscriber drops a change older than one it applied.
	Seq uint64
}

// Store holds the current ViewState and notifies subscribers on change.
// It is the single injected reference every grid component reads from.
type Store struct {
	mu    sync.RWMutex
	state ViewState
	seq   uint64
	subs  []func(Change)
}

// NewStore creates a store holding initial.
func NewStore(initial ViewState) *Store {
	return &Store{state: initial}
}

// Current returns the current state.
func (s *Store) Current() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called after every change. Subscribers run
// synchronously on the updating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Update replaces the state with fn(current) and returns the change. fn must
// not call back into the store.
func (s *Store) Update(fn func(ViewState) ViewState) Change {
	s.mu.Lock()
	old := s.state
	next := fn(old)
	s.state = next
	s.seq++
	seq := s.seq
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	ch := Change{
		Old:              old,
		New:              next,
		SignatureChanged: old.Signature() != next.Signature(),
		LayoutChanged:    !layoutEqual(old, next),
		Seq:              seq,
	}
	for _, sub := range subs {
		sub(ch)
	}
	return ch
}

// SwitchView replaces the whole state. Sort, filters, hidden fields and
// search all come from next; nothing is merged from the previous view.
func (s *Store) SwitchView(next ViewState) Change {
	return s.Update(func(ViewState) ViewState { return next })
}
