package ecoledger

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// stubStore is an in-package Store double that records calls.
type stubStore struct {
	entries      []Entry
	replaceCalls int
	appendErr    error
	replaceErr   error
}

func newStubStore() *stubStore {
	return &stubStore{}
}

func (store *stubStore) Append(ctx context.Context, entry Entry) error {
	return store.AppendBatch(ctx, []Entry{entry})
}

func (store *stubStore) AppendBatch(_ context.Context, entries []Entry) error {
	if store.appendErr != nil {
		return store.appendErr
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	store.entries = append(store.entries, entries...)
	return nil
}

func (store *stubStore) All(_ context.Context) ([]Entry, error) {
	snapshot := make([]Entry, len(store.entries))
	copy(snapshot, store.entries)
	return snapshot, nil
}

func (store *stubStore) Replace(_ context.Context, entries []Entry) error {
	if store.replaceErr != nil {
		return store.replaceErr
	}
	store.replaceCalls++
	replacement := make([]Entry, len(entries))
	copy(replacement, entries)
	store.entries = replacement
	return nil
}

func sequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 1_700_000_000 }, WithIDGenerator(sequentialIDs("entry")))
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	return service
}

func mustActorName(test *testing.T, raw string) ActorName {
	test.Helper()
	actor, err := NewActorName(raw)
	if err != nil {
		test.Fatalf("actor name %q: %v", raw, err)
	}
	return actor
}

func mustQuantity(test *testing.T, raw float64) Quantity {
	test.Helper()
	quantity, err := NewQuantity(raw)
	if err != nil {
		test.Fatalf("quantity %v: %v", raw, err)
	}
	return quantity
}

func mustEntry(test *testing.T, entryID string, recordedUnixUTC int64, actorName string, role Role, activity ActivityKind, quantity float64) Entry {
	test.Helper()
	entry, err := NewEntry(entryID, recordedUnixUTC, mustActorName(test, actorName), role, activity, mustQuantity(test, quantity))
	if err != nil {
		test.Fatalf("entry %q: %v", entryID, err)
	}
	return entry
}

func almostEqual(left float64, right float64) bool {
	return math.Abs(left-right) < 1e-9
}
