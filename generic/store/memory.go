// Package store provides Store implementations.
package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/warp/absence-ledger/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(key)
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) getLocked(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, generic.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) setLocked(key string, value []byte) {
	// Callers may reuse their buffer after Set returns.
	m.values[key] = slices.Clone(value)
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := maps.Clone(tm.values)

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.values = snapshot
		return err
	}
	return nil
}

// txMemoryView operates on the parent while its lock is held by WithTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Get(_ context.Context, key string) ([]byte, error) {
	return tv.parent.getLocked(key)
}

func (tv *txMemoryView) Set(_ context.Context, key string, value []byte) error {
	tv.parent.setLocked(key, value)
	return nil
}

func (tv *txMemoryView) Delete(_ context.Context, key string) error {
	delete(tv.parent.values, key)
	return nil
}
