package main

import (
	"sync"
	"time"

	"github.com/bodul/xweditor/grid"
)

// Editor is one grid being edited. Commands are applied one at a time.
type Editor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	mu        sync.Mutex
	session   *grid.Session
}

// Apply runs fn on the session and returns the resulting state. The state
// is returned even when fn fails, since a failed command may still have
// changed the board (a typed letter with nowhere to advance).
func (e *Editor) Apply(fn func(s *grid.Session) error) (grid.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	return e.session.State(), err
}

// State returns a snapshot of the editor.
func (e *Editor) State() grid.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State()
}

// Entries returns the current across and down entries.
func (e *Editor) Entries() []grid.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Entries()
}
