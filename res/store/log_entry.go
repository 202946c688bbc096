package store

import (
	"context"
	"time"
)

// Operation is the fixed, closed enumeration of things a LogEntry can
// record (§3, §9 "keep the set of operation strings closed and small").
type Operation string

const (
	OperationAdded              Operation = "added"
	OperationUpdated            Operation = "updated"
	OperationReplaced           Operation = "replaced"
	OperationDeactivated        Operation = "deactivated"
	OperationUnchanged          Operation = "unchanged"
	OperationCheckoutTypeChange Operation = "checkout_type_changed"
	OperationError              Operation = "error"
)

// LogEntry records one decision the engine made with enough context to
// replay what happened (§3, §4.3).
type LogEntry struct {
	ID            string    `gorm:"primaryKey;size:50;unique"`
	SyncSessionID string    `gorm:"size:50;not null;index:idx_log_session"`
	CreatedAt     time.Time `gorm:"autoCreateTime;not null"`
	Operation     Operation `gorm:"size:30;not null"`
	EventID       string    `gorm:"size:255"`
	ListingName   string    `gorm:"size:255;not null;index:idx_log_listing_name"`
	EventDetails  string    `gorm:"type:text"` // opaque JSON document
	Reasoning     string    `gorm:"type:text"`
	Metadata      string    `gorm:"type:text"` // opaque JSON document
}

// LogEntryStore defines the append-only batch insert used by the Session
// Logger (§4.3: "entries are buffered per reconcile and flushed as a
// batch before complete_session").
type LogEntryStore interface {
	InsertBatch(ctx context.Context, entries []LogEntry) error

	// ListBySession returns every entry written under a session, in the
	// order they were created. Used by session archival to capture a
	// session's full decision log, not just its counters.
	ListBySession(ctx context.Context, sessionID string) ([]LogEntry, error)
}
