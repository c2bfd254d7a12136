package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// ID identifies a row or column in the grid. A temporary ID is minted
// locally for an entity the store has not confirmed yet; a confirmed ID is
// the store's own identifier.
type ID struct {
	value string
	temp  bool
}

// ConfirmedID wraps a store identifier.
func ConfirmedID(v string) ID { return ID{value: v} }

// NewTemporaryID returns a fresh locally minted ID.
func NewTemporaryID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return ID{value: "tmp-" + u.String(), temp: true}
}

// Temporary reports whether the store has not confirmed id yet.
func (id ID) Temporary() bool { return id.temp }

// Value returns the raw identifier.
func (id ID) Value() string { return id.value }

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id.value == "" }

func (id ID) String() string { return id.value }

type resolution struct {
	done  chan struct{}
	value string
	err   error
}

// registry maps temporary IDs to the store IDs they resolve to. Requests
// against a temporary ID wait for its confirmation.
type registry struct {
	mu   sync.Mutex
	byID map[ID]*resolution

	// origin maps a confirmed store ID back to the temporary ID it replaced.
	origin map[string]ID
}

func newRegistry() *registry {
	return &registry{byID: make(map[ID]*resolution), origin: make(map[string]ID)}
}

func (r *registry) track(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &resolution{done: make(chan struct{})}
}

func (r *registry) settle(id ID, value string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return
	}
	select {
	case <-res.done:
		return
	default:
	}
	res.value, res.err = value, err
	if err == nil {
		r.origin[value] = id
	}
	close(res.done)
}

func (r *registry) confirm(id ID, value string) { r.settle(id, value, nil) }

func (r *registry) fail(id ID, err error) { r.settle(id, "", err) }

// canonical returns the confirmed ID for id when its confirmation has
// already arrived, and id otherwise.
func (r *registry) canonical(id ID) ID {
	if !id.temp {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return id
	}
	select {
	case <-res.done:
		if res.err == nil {
			return ConfirmedID(res.value)
		}
	default:
	}
	return id
}

// key returns a name for id that does not change when a temporary ID is
// confirmed: both forms of the ID yield the temporary value.
func (r *registry) key(id ID) string {
	if id.temp {
		return id.value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmp, ok := r.origin[id.value]; ok {
		return tmp.value
	}
	return id.value
}

// resolve returns the store identifier for id, blocking until a temporary
// ID is confirmed or its creation fails.
func (r *registry) resolve(ctx context.Context, id ID) (string, error) {
	if !id.temp {
		return id.value, nil
	}
	r.mu.Lock()
	res, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrTemporaryID, id.value)
	}
	select {
	case <-res.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrTemporaryID, id.value, res.err)
	}
	return res.value, nil
}
