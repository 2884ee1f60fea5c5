/*******************************************************************************
* File name: registry.go
*
* Description: a per-filename mutex registry serializing concurrent
* operations against the same logical file across separate API calls.
*******************************************************************************/

package locks

import "sync"

// entry reference-counts the waiters on one filename's mutex so the
// registry can evict it once nobody holds a reference, instead of growing
// without bound.
type entry struct {
	mu       sync.Mutex
	refCount int
}

// Registry hands out a per-filename mutex, creating it lazily and removing
// it once its last holder releases. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Lock blocks until filename's mutex is held by the caller. The returned
// func releases it; callers must defer it exactly once.
func (r *Registry) Lock(filename string) (unlock func()) {
	r.mu.Lock()
	e, ok := r.entries[filename]
	if !ok {
		e = &entry{}
		r.entries[filename] = e
	}
	e.refCount++
	r.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		r.mu.Lock()
		e.refCount--
		if e.refCount == 0 {
			delete(r.entries, filename)
		}
		r.mu.Unlock()
	}
}
