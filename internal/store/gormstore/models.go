package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerEntry mirrors the ledger_entries table. Seq preserves insertion
// order for snapshot reads and export.
type LedgerEntry struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement"`
	EntryID    string    `gorm:"not null;uniqueIndex:uniq_ledger_entry_id"`
	RecordedAt time.Time `gorm:"not null;index:idx_ledger_recorded_at"`
	ActorName  string    `gorm:"not null"`
	Role       string    `gorm:"not null"`
	Activity   string    `gorm:"not null"`
	Quantity   float64   `gorm:"not null"`
	CO2SavedKg float64   `gorm:"column:co2_saved_kg;not null"`
	Credits    float64   `gorm:"not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (entry *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return nil
}
