package surface

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("surface not found")

// Registry tracks the surfaces mounted through the bridge, each owned by
// one user.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[uuid.UUID]*entry
}

type entry struct {
	owner   string
	surface *Surface
}

func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[uuid.UUID]*entry)}
}

func (r *Registry) Add(owner string, s *Surface) {
	r.mu.Lock()
	r.surfaces[s.ID] = &entry{owner: owner, surface: s}
	r.mu.Unlock()
}

// Get returns the surface if it exists and belongs to owner. Surfaces of
// other users are reported as not found.
func (r *Registry) Get(owner string, id uuid.UUID) (*Surface, error) {
	r.mu.RLock()
	e, ok := r.surfaces[id]
	r.mu.RUnlock()
	if !ok || e.owner != owner {
		return nil, ErrNotFound
	}
	return e.surface, nil
}

// Remove unmounts and forgets the surface.
func (r *Registry) Remove(owner string, id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.surfaces[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.surfaces, id)
	r.mu.Unlock()

	e.surface.Unmount()
	return nil
}

// Owned lists the surfaces of one user.
func (r *Registry) Owned(owner string) []*Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Surface
	for _, e := range r.surfaces {
		if e.owner == owner {
			out = append(out, e.surface)
		}
	}
	return out
}

// Close unmounts every surface.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.surfaces
	r.surfaces = make(map[uuid.UUID]*entry)
	r.mu.Unlock()

	for _, e := range all {
		e.surface.Unmount()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}
