// Package locks guards single-spender token addresses during credit
// attempts. Locks live in process memory only: a restart boots with every
// lock released, which is the recovery path for a lock stranded by a crash
// mid-credit.
package locks

import (
	"errors"
	"strings"
	"sync"
)

// ErrAlreadyLocked is returned when the address lock is held. The caller
// skips the address for the current cycle and retries on the next one.
var ErrAlreadyLocked = errors.New("address already locked")

// Manager holds short-lived per-address locks. Addresses are compared
// case-insensitively.
type Manager struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewManager() *Manager {
	return &Manager{held: make(map[string]struct{})}
}

// Lock acquires the lock for address, ErrAlreadyLocked when held.
func (m *Manager) Lock(address string) error {
	key := strings.ToLower(address)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return ErrAlreadyLocked
	}
	m.held[key] = struct{}{}
	return nil
}

// Unlock releases the lock for address. Releasing an unheld lock is a no-op.
func (m *Manager) Unlock(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, strings.ToLower(address))
}

// Held reports whether the lock for address is currently held.
func (m *Manager) Held(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[strings.ToLower(address)]
	return ok
}
