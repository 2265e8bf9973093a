package orchestrator

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/dochost/internal/project"
)

// EntryStatus is the latest orchestration outcome for one route.
type EntryStatus struct {
	Status    project.Status
	Detail    string
	UpdatedAt time.Time
}

// StatusBoard holds per-route statuses. Entries and the route table stay
// immutable while serving; the board is the only state a periodic refresh
// mutates, so it carries its own lock.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]EntryStatus
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: make(map[string]EntryStatus)}
}

// Set records the outcome for a route.
func (b *StatusBoard) Set(route string, status project.Status, detail string) {
	b.mu.Lock()
	b.statuses[route] = EntryStatus{Status: status, Detail: detail, UpdatedAt: time.Now()}
	b.mu.Unlock()
}

// Get returns the outcome for a route.
func (b *StatusBoard) Get(route string) EntryStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if st, ok := b.statuses[route]; ok {
		return st
	}
	return EntryStatus{Status: project.StatusPending}
}
