// internal/approvals/selection/selection.go
package selection

import (
	"sync"

	"approval-console/internal/models"
)

// Key identifies one selectable record.
type Key struct {
	Kind models.Kind
	ID   string
}

// Set tracks which records on the currently displayed page are selected for
// a bulk action. It only ever contains ids from the most recently fetched
// page; Prune keeps that invariant when the page changes.
type Set struct {
	mu    sync.Mutex
	order []Key
	keys  map[Key]struct{}
}

func NewSet() *Set {
	return &Set{keys: make(map[Key]struct{})}
}

// Toggle flips the selection state of key and reports the new state.
func (s *Set) Toggle(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		s.remove(key)
		return false
	}
	s.add(key)
	return true
}

// ToggleAll selects every visible record, or clears the selection when all
// of them are already selected.
func (s *Set) ToggleAll(visible []Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := len(visible) > 0
	for _, key := range visible {
		if _, ok := s.keys[key]; !ok {
			all = false
			break
		}
	}

	if all {
		for _, key := range visible {
			s.remove(key)
		}
		return
	}
	for _, key := range visible {
		if _, ok := s.keys[key]; !ok {
			s.add(key)
		}
	}
}

func (s *Set) Contains(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Keys returns the selected keys in selection order.
func (s *Set) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.keys = make(map[Key]struct{})
}

// Prune drops every selected key that is not on the newly visible page.
func (s *Set) Prune(visible []Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[Key]struct{}, len(visible))
	for _, key := range visible {
		keep[key] = struct{}{}
	}

	order := s.order[:0]
	for _, key := range s.order {
		if _, ok := keep[key]; ok {
			order = append(order, key)
		} else {
			delete(s.keys, key)
		}
	}
	s.order = order
}

func (s *Set) add(key Key) {
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *Set) remove(key Key) {
	delete(s.keys, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
