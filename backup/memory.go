package backup

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRemote keeps backup documents in process.
type MemoryRemote struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{docs: make(map[string][]byte)}
}

func (m *MemoryRemote) Put(_ context.Context, id string, doc []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = slices.Clone(doc)
	return nil
}

func (m *MemoryRemote) Fetch(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return slices.Clone(doc), nil
}
