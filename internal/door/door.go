package door

import (
	"context"
	"fmt"
	"sync"
)

// Result is what a door hands back after initializing or handling input.
// State is the door's own serialized state; the hosting engine stores it
// without interpreting it.
type Result struct {
	State  []byte
	Output string
	Done   bool
}

// Door is a self-contained interactive sub-program. Handle must treat empty
// input as "render the current prompt" and return State unchanged; the
// engine discards the returned state on empty input either way.
type Door interface {
	ID() string
	Title() string
	Init(ctx context.Context) (Result, error)
	Handle(ctx context.Context, state []byte, input string) (Result, error)
}

// Registry holds the doors installed on this board.
type Registry struct {
	mu    sync.RWMutex
	doors map[string]Door
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		doors: make(map[string]Door),
	}
}

func (r *Registry) Register(d Door) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.doors[d.ID()]; exists {
		return fmt.Errorf("door %q already registered", d.ID())
	}
	r.doors[d.ID()] = d
	r.order = append(r.order, d.ID())
	return nil
}

func (r *Registry) Get(id string) (Door, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doors[id]
	return d, ok
}

// List returns installed doors in registration order.
func (r *Registry) List() []Door {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Door, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.doors[id])
	}
	return out
}
