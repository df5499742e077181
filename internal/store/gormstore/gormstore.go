// Package gormstore implements ecoledger.Store over GORM with the
// glebarez sqlite driver. The default DSN is ":memory:", which keeps the
// ledger session-scoped like the in-memory store.
package gormstore

import (
	"context"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/ecoledger/pkg/ecoledger"
)

const (
	sqliteConstraintCode = 19
	errorOperationStore  = "store"
	errorSubjectEntry    = "entry"
	errorSubjectLedger   = "ledger"
	errorCodeDuplicate   = "duplicate"
	errorCodeInsert      = "insert"
	errorCodeInvalid     = "invalid"
	errorCodeList        = "list"
	errorCodeOpen        = "open"
	errorCodeReplace     = "replace"
	errorCodeValidate    = "validate"
)

// MemoryDSN keeps the sqlite ledger entirely in process memory.
const MemoryDSN = ":memory:"

// Store implements ecoledger.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open dials sqlite at the supplied DSN, migrates the schema, and wraps it.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, wrapStoreError(errorSubjectLedger, errorCodeOpen, err)
	}
	if err := db.AutoMigrate(&LedgerEntry{}); err != nil {
		return nil, wrapStoreError(errorSubjectLedger, errorCodeOpen, err)
	}
	return New(db), nil
}

// Append validates and inserts one entry.
func (store *Store) Append(ctx context.Context, entry ecoledger.Entry) error {
	if err := entry.Validate(); err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeValidate, err)
	}
	err := store.db.WithContext(ctx).Create(modelFromEntry(entry)).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, ecoledger.ErrDuplicateEntryID)
	}
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

// AppendBatch inserts entries in order inside one transaction, so a failing
// entry leaves the ledger untouched.
func (store *Store) AppendBatch(ctx context.Context, entries []ecoledger.Entry) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		transactional := &Store{db: transaction}
		for _, entry := range entries {
			if err := transactional.Append(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns a snapshot copy in insertion order.
func (store *Store) All(ctx context.Context) ([]ecoledger.Entry, error) {
	var rows []LedgerEntry
	err := store.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	entries := make([]ecoledger.Entry, 0, len(rows))
	for _, row := range rows {
		entry := entryFromModel(row)
		if err := entry.Validate(); err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Replace atomically swaps the whole ledger for the supplied entries.
func (store *Store) Replace(ctx context.Context, entries []ecoledger.Entry) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if err := transaction.Where("1 = 1").Delete(&LedgerEntry{}).Error; err != nil {
			return wrapStoreError(errorSubjectLedger, errorCodeReplace, err)
		}
		transactional := &Store{db: transaction}
		for _, entry := range entries {
			if err := transactional.Append(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func modelFromEntry(entry ecoledger.Entry) *LedgerEntry {
	return &LedgerEntry{
		EntryID:    entry.EntryID,
		RecordedAt: time.Unix(entry.RecordedUnixUTC, 0).UTC(),
		ActorName:  entry.ActorName,
		Role:       entry.Role.String(),
		Activity:   entry.Activity.String(),
		Quantity:   entry.Quantity,
		CO2SavedKg: entry.CO2SavedKg,
		Credits:    entry.Credits,
	}
}

func entryFromModel(row LedgerEntry) ecoledger.Entry {
	return ecoledger.Entry{
		EntryID:         row.EntryID,
		RecordedUnixUTC: row.RecordedAt.Unix(),
		ActorName:       row.ActorName,
		Role:            ecoledger.Role(row.Role),
		Activity:        ecoledger.ActivityKind(row.Activity),
		Quantity:        row.Quantity,
		CO2SavedKg:      row.CO2SavedKg,
		Credits:         row.Credits,
	}
}

func wrapStoreError(subject string, code string, err error) error {
	return ecoledger.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
