package journal

import (
	"context"
	"sync"
)

var _ Recorder = (*Memory)(nil)

// Memory keeps entries in process.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Save(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

// Entries returns a copy of every saved entry in insertion order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
