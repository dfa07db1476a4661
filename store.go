package main

import (
	"slices"
	"sync"
	"time"

	"github.com/bodul/xweditor/grid"
	"github.com/google/uuid"
)

// Store holds all editors in memory.
type Store struct {
	mu      sync.RWMutex
	editors map[string]*Editor
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		editors: make(map[string]*Editor),
	}
}

// Create starts a new editor with an empty board.
func (s *Store) Create() *Editor {
	e := &Editor{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		session:   grid.New(),
	}

	s.mu.Lock()
	s.editors[e.ID] = e
	s.mu.Unlock()

	return e
}

// Get returns an editor by ID, or nil if not found.
func (s *Store) Get(id string) *Editor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editors[id]
}

// List returns all editors, most recent first.
func (s *Store) List() []*Editor {
	s.mu.RLock()
	list := make([]*Editor, 0, len(s.editors))
	for _, e := range s.editors {
		list = append(list, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Editor) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

// Delete removes an editor. It reports whether the editor existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.editors[id]; !ok {
		return false
	}
	delete(s.editors, id)
	return true
}
