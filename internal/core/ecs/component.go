package ecs

import (
	"iter"
	"slices"
)

// Removable is implemented by all component stores so the World can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a typed map of per-entity components held by pointer, so systems
// mutate records in place. Iteration is in ascending id order; the sorted key
// list is rebuilt lazily after membership changes.
type Store[T any] struct {
	data  map[EntityID]*T
	keys  []EntityID
	dirty bool
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 256),
	}
}

// Set attaches c to id, replacing any previous component.
func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.dirty = true
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; ok {
		delete(s.data, id)
		s.dirty = true
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns the entity ids in ascending order. The slice is shared; callers
// must not modify it or hold it across membership changes.
func (s *Store[T]) IDs() []EntityID {
	if s.dirty || len(s.keys) != len(s.data) {
		s.keys = s.keys[:0]
		for id := range s.data {
			s.keys = append(s.keys, id)
		}
		slices.Sort(s.keys)
		s.dirty = false
	}
	return s.keys
}

// All yields every (id, component) pair in ascending id order.
func (s *Store[T]) All() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		for _, id := range s.IDs() {
			if !yield(id, s.data[id]) {
				return
			}
		}
	}
}
