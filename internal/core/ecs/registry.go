package ecs

// Registry holds every component store of a World so an entity can be
// cleared from all of them at once.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 8),
	}
}

func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// Len returns the number of registered stores.
func (r *Registry) Len() int { return len(r.stores) }

// Components counts the stores holding a component for id.
func (r *Registry) Components(id EntityID) int {
	n := 0
	for _, s := range r.stores {
		if s.Has(id) {
			n++
		}
	}
	return n
}

// RemoveAll clears id from every registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}
