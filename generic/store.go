/*
store.go - Persistence interface for the raw collections

PURPOSE:
  Defines the boundary between the pure calculation core and storage.
  The core never touches a Store: callers load a snapshot (absences,
  hour bank, notes), pass it to the core and persist whatever the user
  changed. A Store is therefore a plain key-value map of JSON documents.

KEY INTERFACES:
  Store:   Get / Set / Delete on opaque byte values
  TxStore: Store + WithTx for atomic multi-key writes (restore from backup
           replaces three keys at once, all or nothing)

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for tests and dev
  - store/sqlite/sqlite.go: SQLite table, survives restarts

EXAMPLE:
  raw, err := store.Get(ctx, "work-calendar-absences")
  if errors.Is(err, generic.ErrKeyNotFound) {
      // never saved, use defaults
  }

SEE ALSO:
  - timeoff/ledger.go: Typed access on top of Store
  - backup/backup.go: Uses TxStore for atomic restore
*/
package generic

import "context"

// =============================================================================
// STORE - Key-value persistence
// =============================================================================

// Store persists JSON documents under fixed keys.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
