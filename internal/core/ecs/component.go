package ecs

import "github.com/kamstrup/intmap"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
	Has(id EntityID) bool
}

// PtrComponentStore keeps one *T per entity. It is the per-component data
// arena: a missing entity is a lookup miss, never a nil dereference.
// Iteration order is unspecified.
type PtrComponentStore[T any] struct {
	data *intmap.Map[EntityID, *T]
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: intmap.New[EntityID, *T](256),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	s.data.Put(id, c)
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	return s.data.Get(id)
}

// Ensure returns the entity's component, creating it with init when absent.
func (s *PtrComponentStore[T]) Ensure(id EntityID, init func() *T) *T {
	if c, ok := s.data.Get(id); ok {
		return c
	}
	c := init()
	s.data.Put(id, c)
	return c
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	s.data.Del(id)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	return s.data.Has(id)
}

func (s *PtrComponentStore[T]) Len() int {
	return s.data.Len()
}

// Each visits every component. fn must not add or remove components of
// this store.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	s.data.ForEach(func(id EntityID, c *T) bool {
		fn(id, c)
		return true
	})
}

// IDs returns a snapshot of the stored entity IDs, safe to mutate the store
// while ranging over it.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	ids := make([]EntityID, 0, s.data.Len())
	for id := range s.data.Keys() {
		ids = append(ids, id)
	}
	return ids
}
