package store

import (
	"context"
	"time"
)

// ChangeType enumerates the kinds of audit rows recorded against a booking.
type ChangeType string

const (
	ChangeTypeModified  ChangeType = "modified"
	ChangeTypeCancelled ChangeType = "cancelled"
)

// ChangeRecord is an append-only audit row describing a modification or
// cancellation (§3). Deduplicated on the full tuple (I6).
type ChangeRecord struct {
	ID               string     `gorm:"primaryKey;size:50;unique"`
	ListingName      string     `gorm:"size:255;not null;index:idx_change_listing_name"`
	EventID          string     `gorm:"size:255;not null;index:idx_change_event_id"`
	ChangeType       ChangeType `gorm:"size:20;not null"`
	OldCheckinDate   *time.Time
	OldCheckoutDate  *time.Time
	NewCheckinDate   *time.Time
	NewCheckoutDate  *time.Time
	OldEventID       *string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
}

// ChangeRecordStore defines the data access interface for change history.
type ChangeRecordStore interface {
	// Insert returns false if a byte-identical record already exists (I6),
	// and true if a new row was written.
	Insert(ctx context.Context, record ChangeRecord) (bool, error)
}
