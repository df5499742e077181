// Package memstore provides the default session-scoped Store: an
// RWMutex-guarded in-memory slice that preserves insertion order.
package memstore

import (
	"context"
	"sync"

	"github.com/MarkoPoloResearchLab/ecoledger/pkg/ecoledger"
)

const (
	errorOperationStore = "store"
	errorSubjectEntry   = "entry"
	errorCodeValidate   = "validate"
	errorCodeDuplicate  = "duplicate"
)

// Store implements ecoledger.Store in memory.
type Store struct {
	mutex   sync.RWMutex
	entries []ecoledger.Entry
	ids     map[string]struct{}
}

// New returns an empty Store.
func New() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Append validates and stores one entry at the end of the ledger.
func (store *Store) Append(ctx context.Context, entry ecoledger.Entry) error {
	return store.AppendBatch(ctx, []ecoledger.Entry{entry})
}

// AppendBatch stores entries in order. The batch is all-or-nothing: a
// validation or duplicate-id failure leaves the ledger untouched.
func (store *Store) AppendBatch(_ context.Context, entries []ecoledger.Entry) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if err := store.checkBatch(entries); err != nil {
		return err
	}
	for _, entry := range entries {
		store.entries = append(store.entries, entry)
		store.ids[entry.EntryID] = struct{}{}
	}
	return nil
}

// All returns a snapshot copy in insertion order.
func (store *Store) All(_ context.Context) ([]ecoledger.Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	snapshot := make([]ecoledger.Entry, len(store.entries))
	copy(snapshot, store.entries)
	return snapshot, nil
}

// Replace atomically swaps the whole ledger for the supplied entries.
// No reader ever observes an empty-then-partially-filled state.
func (store *Store) Replace(_ context.Context, entries []ecoledger.Entry) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	replacementIDs := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return wrapStoreError(errorSubjectEntry, errorCodeValidate, err)
		}
		if _, duplicate := replacementIDs[entry.EntryID]; duplicate {
			return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, ecoledger.ErrDuplicateEntryID)
		}
		replacementIDs[entry.EntryID] = struct{}{}
	}

	replacement := make([]ecoledger.Entry, len(entries))
	copy(replacement, entries)
	store.entries = replacement
	store.ids = replacementIDs
	return nil
}

func (store *Store) checkBatch(entries []ecoledger.Entry) error {
	batchIDs := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return wrapStoreError(errorSubjectEntry, errorCodeValidate, err)
		}
		if _, exists := store.ids[entry.EntryID]; exists {
			return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, ecoledger.ErrDuplicateEntryID)
		}
		if _, duplicate := batchIDs[entry.EntryID]; duplicate {
			return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, ecoledger.ErrDuplicateEntryID)
		}
		batchIDs[entry.EntryID] = struct{}{}
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ecoledger.WrapError(errorOperationStore, subject, code, err)
}
