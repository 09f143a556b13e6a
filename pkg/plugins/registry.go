package plugins

import (
	"fmt"
	"sync"
)

// Registry holds loaded descriptors by UID, in load order.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Descriptor
	order   []*Descriptor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*Descriptor),
	}
}

// Register adds a descriptor to the registry
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot register nil descriptor")
	}
	if d.UID == "" {
		return fmt.Errorf("descriptor has no UID: %s", d.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[d.UID]; exists {
		return fmt.Errorf("plugin already registered: %s", d.UID)
	}

	r.plugins[d.UID] = d
	r.order = append(r.order, d)
	return nil
}

// Get retrieves a descriptor by UID
func (r *Registry) Get(uid string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.plugins[uid]
	if !exists {
		return nil, fmt.Errorf("plugin not found: %s", uid)
	}

	return d, nil
}

// Has checks if a UID is registered
func (r *Registry) Has(uid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.plugins[uid]
	return exists
}

// List returns all descriptors in load order
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Descriptor, len(r.order))
	copy(result, r.order)
	return result
}

// Count returns the number of registered descriptors
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Close closes every registered descriptor and empties the registry
func (r *Registry) Close() error {
	r.mu.Lock()
	order := r.order
	r.plugins = make(map[string]*Descriptor)
	r.order = nil
	r.mu.Unlock()

	return closeAll(order)
}
