package tab

import (
	"sync"
)

// Manager owns the set of live tabs. Each *Tab synchronizes its own
// state; Manager only guards the id -> *Tab map.
type Manager struct {
	mu         sync.RWMutex
	tabs       map[string]*Tab
	maxHistory int
}

// NewManager creates an empty tab manager trimming history at maxHistory.
func NewManager(maxHistory int) *Manager {
	return &Manager{tabs: map[string]*Tab{}, maxHistory: maxHistory}
}

// Create opens a new tab and registers it.
func (m *Manager) Create(privacyMode bool) *Tab {
	t := New(m.maxHistory, privacyMode)
	m.mu.Lock()
	m.tabs[t.ID] = t
	m.mu.Unlock()
	return t
}

// Get returns a tab by id.
func (m *Manager) Get(id string) (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tabs[id]
	return t, ok
}

// Close removes a tab from the manager. The caller is responsible for
// cancelling any in-flight load and downloads bound to it beforehand
// (spec.md §4.7 edge case) — Manager itself has no loader/download
// dependency.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[id]; !ok {
		return false
	}
	delete(m.tabs, id)
	return true
}

// List returns every live tab id.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tabs))
	for id := range m.tabs {
		ids = append(ids, id)
	}
	return ids
}
