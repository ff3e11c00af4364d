package locks

import (
	"errors"
	"testing"
)

func TestManager_LockUnlock(t *testing.T) {
	m := NewManager()

	if err := m.Lock("0xABC"); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if !m.Held("0xabc") {
		t.Error("Expected lock comparison to be case-insensitive")
	}

	if err := m.Lock("0xabc"); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Expected ErrAlreadyLocked, got %v", err)
	}

	m.Unlock("0xAbC")
	if m.Held("0xabc") {
		t.Error("Expected lock to be released")
	}
	if err := m.Lock("0xabc"); err != nil {
		t.Errorf("Re-lock after unlock failed: %v", err)
	}
}

func TestManager_UnlockUnheld(t *testing.T) {
	m := NewManager()
	// Must not panic or error.
	m.Unlock("0xnever")
	if m.Held("0xnever") {
		t.Error("Unheld address should not be held")
	}
}
