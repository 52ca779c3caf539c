package shell

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultIdleTTL is how long a shell survives without requests.
const DefaultIdleTTL = 30 * time.Minute

// Manager keeps one Shell per browser session. Shells untouched for longer
// than the idle TTL are evicted when new shells are created.
type Manager struct {
	deps    Dependencies
	idleTTL time.Duration

	mu        sync.Mutex
	shells    map[string]*Shell
	lastSeen  map[string]time.Time
	lastSweep time.Time
}

func NewManager(deps Dependencies) *Manager {
	ttl := deps.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Manager{
		deps:     deps,
		idleTTL:  ttl,
		shells:   map[string]*Shell{},
		lastSeen: map[string]time.Time{},
	}
}

// Get returns the shell of sessionID, creating it on first use.
func (m *Manager) Get(sessionID string) *Shell {
	sessionID = strings.TrimSpace(sessionID)
	now := m.now()

	m.mu.Lock()
	if existing, ok := m.shells[sessionID]; ok {
		m.lastSeen[sessionID] = now
		m.mu.Unlock()
		return existing
	}
	var evicted []*Shell
	if now.Sub(m.lastSweep) >= m.idleTTL/2 {
		evicted = m.sweepLocked(now)
	}
	deps := m.deps
	if deps.APIFactory != nil {
		deps.API = deps.APIFactory(sessionID)
	}
	created := New(sessionID, deps)
	m.shells[sessionID] = created
	m.lastSeen[sessionID] = now
	m.mu.Unlock()

	closeAll(evicted)
	return created
}

// Lookup returns the shell of sessionID without creating one.
func (m *Manager) Lookup(sessionID string) (*Shell, bool) {
	sessionID = strings.TrimSpace(sessionID)
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.shells[sessionID]
	if ok {
		m.lastSeen[sessionID] = now
	}
	return existing, ok
}

// Remove logs the session out and forgets its shell.
func (m *Manager) Remove(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	m.mu.Lock()
	existing, ok := m.shells[sessionID]
	delete(m.shells, sessionID)
	delete(m.lastSeen, sessionID)
	m.mu.Unlock()
	if !ok {
		return
	}
	existing.Logout()
	existing.Close()
}

// EvictIdle drops every shell idle for longer than the TTL and reports how
// many were dropped.
func (m *Manager) EvictIdle() int {
	now := m.now()
	m.mu.Lock()
	evicted := m.sweepLocked(now)
	m.mu.Unlock()
	closeAll(evicted)
	return len(evicted)
}

func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.shells))
	for id := range m.shells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) sweepLocked(now time.Time) []*Shell {
	m.lastSweep = now
	var evicted []*Shell
	for id, seen := range m.lastSeen {
		if now.Sub(seen) <= m.idleTTL {
			continue
		}
		evicted = append(evicted, m.shells[id])
		delete(m.shells, id)
		delete(m.lastSeen, id)
	}
	return evicted
}

func (m *Manager) now() time.Time {
	if m.deps.Clock != nil {
		return m.deps.Clock.Now()
	}
	return time.Now().UTC()
}

func closeAll(shells []*Shell) {
	for _, s := range shells {
		if s != nil {
			s.Close()
		}
	}
}
