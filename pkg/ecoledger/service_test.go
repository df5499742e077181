package ecoledger

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

func TestSubmitAppendsDerivedEntry(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)

	entry, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityTreesPlanted, mustQuantity(test, 2))
	if err != nil {
		test.Fatalf("submit: %v", err)
	}
	if len(store.entries) != 1 {
		test.Fatalf("expected 1 stored entry, got %d", len(store.entries))
	}
	if entry.EntryID != "entry-1" {
		test.Fatalf("unexpected entry id %q", entry.EntryID)
	}
	if !almostEqual(entry.Credits, 43.54) {
		test.Fatalf("expected 43.54 credits reported back, got %v", entry.Credits)
	}
	if store.entries[0].RecordedUnixUTC != 1_700_000_000 {
		test.Fatalf("expected service clock timestamp, got %d", store.entries[0].RecordedUnixUTC)
	}
}

func TestSubmitUnknownActivityLeavesStoreUntouched(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)

	_, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityKind("composting"), mustQuantity(test, 2))
	if !errors.Is(err, ErrInvalidActivity) {
		test.Fatalf("expected ErrInvalidActivity, got %v", err)
	}
	if len(store.entries) != 0 {
		test.Fatalf("store must stay empty, got %d entries", len(store.entries))
	}
}

func TestSubmitPropagatesStoreFailure(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.appendErr = errors.New("disk full")
	service := mustNewService(test, store)

	_, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityTreesPlanted, mustQuantity(test, 2))
	if err == nil || !errors.Is(err, store.appendErr) {
		test.Fatalf("expected store failure, got %v", err)
	}
}

func TestResetWithoutSeedEmptiesLedger(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	if _, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityTreesPlanted, mustQuantity(test, 2)); err != nil {
		test.Fatalf("submit: %v", err)
	}

	if err := service.Reset(context.Background(), nil); err != nil {
		test.Fatalf("reset: %v", err)
	}
	snapshot, err := service.Snapshot(context.Background())
	if err != nil {
		test.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 0 {
		test.Fatalf("expected empty ledger, got %d entries", len(snapshot))
	}
	if store.replaceCalls != 1 {
		test.Fatalf("expected one atomic replace, got %d", store.replaceCalls)
	}
}

func TestResetWithSeedInstallsExactlySeededEntries(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	if _, err := service.Submit(context.Background(), mustActorName(test, "Old Actor"), RoleStudent, ActivityWaterSaved, mustQuantity(test, 500)); err != nil {
		test.Fatalf("submit: %v", err)
	}

	seeder, err := NewSeeder(rand.New(rand.NewSource(9)), WithSeederIDGenerator(sequentialIDs("seed")))
	if err != nil {
		test.Fatalf("seeder init: %v", err)
	}
	if err := service.Reset(context.Background(), seeder.SeedFunc(25)); err != nil {
		test.Fatalf("reset: %v", err)
	}

	snapshot, err := service.Snapshot(context.Background())
	if err != nil {
		test.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 25 {
		test.Fatalf("expected exactly 25 seeded entries, got %d", len(snapshot))
	}
	for _, entry := range snapshot {
		if entry.ActorName == "Old Actor" {
			test.Fatalf("reset leaked a pre-reset entry")
		}
	}
	if store.replaceCalls != 1 {
		test.Fatalf("expected one atomic replace, got %d", store.replaceCalls)
	}
}

func TestResetSeedFailureLeavesLedgerAlone(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	if _, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityTreesPlanted, mustQuantity(test, 2)); err != nil {
		test.Fatalf("submit: %v", err)
	}

	seedErr := errors.New("seed source offline")
	err := service.Reset(context.Background(), func(int64) ([]Entry, error) { return nil, seedErr })
	if !errors.Is(err, seedErr) {
		test.Fatalf("expected seed failure, got %v", err)
	}
	if store.replaceCalls != 0 {
		test.Fatalf("replace must not run when seeding fails")
	}
	if len(store.entries) != 1 {
		test.Fatalf("ledger must be untouched, got %d entries", len(store.entries))
	}
}

func TestSnapshotIsACopy(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	if _, err := service.Submit(context.Background(), mustActorName(test, "Alice"), RoleStudent, ActivityTreesPlanted, mustQuantity(test, 2)); err != nil {
		test.Fatalf("submit: %v", err)
	}

	snapshot, err := service.Snapshot(context.Background())
	if err != nil {
		test.Fatalf("snapshot: %v", err)
	}
	snapshot[0].ActorName = "Mallory"

	again, err := service.Snapshot(context.Background())
	if err != nil {
		test.Fatalf("snapshot: %v", err)
	}
	if again[0].ActorName != "Alice" {
		test.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestNewServiceValidatesDependencies(test *testing.T) {
	test.Parallel()
	if _, err := NewService(nil, func() int64 { return 0 }); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected ErrInvalidServiceConfig for nil store, got %v", err)
	}
	if _, err := NewService(newStubStore(), nil); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected ErrInvalidServiceConfig for nil clock, got %v", err)
	}
}
