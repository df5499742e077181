package ecoledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SeedFunc builds a replacement ledger as of the supplied clock reading.
// It is invoked inside Reset so readers never observe an empty-then-partial
// intermediate state.
type SeedFunc func(nowUnixUTC int64) ([]Entry, error)

// Service contains the domain logic over a Store.
type Service struct {
	store  Store
	nowFn  func() int64
	newID  func() string
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, newID: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Submit appends one validated contribution and returns the stored entry,
// including its derived credit value.
func (service *Service) Submit(ctx context.Context, actor ActorName, role Role, activity ActivityKind, quantity Quantity) (Entry, error) {
	entry, err := NewEntry(service.newID(), service.nowFn(), actor, role, activity, quantity)
	if err == nil {
		err = service.store.Append(ctx, entry)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationSubmit,
		EntryID:   entry.EntryID,
		ActorName: actor.String(),
		Activity:  activity,
		Credits:   entry.Credits,
		Error:     err,
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Snapshot returns an immutable copy of the full ledger in insertion order.
func (service *Service) Snapshot(ctx context.Context) ([]Entry, error) {
	return service.store.All(ctx)
}

// Reset atomically discards the ledger. When seed is non-nil the replacement
// entries are generated first and installed in the same store operation.
func (service *Service) Reset(ctx context.Context, seed SeedFunc) error {
	var (
		seeded []Entry
		err    error
	)
	if seed != nil {
		seeded, err = seed(service.nowFn())
	}
	if err == nil {
		err = service.store.Replace(ctx, seeded)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationReset,
		SeedCount: len(seeded),
		Error:     err,
	})
	return err
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
