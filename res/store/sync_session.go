package store

import (
	"context"
	"time"
)

// SyncType distinguishes a single-listing run from an all-listings run.
type SyncType string

const (
	SyncTypeSingle SyncType = "single"
	SyncTypeAll    SyncType = "all"
)

// TriggeredBy records who/what started a sync run.
type TriggeredBy string

const (
	TriggeredByManual    TriggeredBy = "manual"
	TriggeredByAutomatic TriggeredBy = "automatic"
	TriggeredByCron      TriggeredBy = "cron"
)

// SessionStatus is the state machine a SyncSession moves through (I7):
// pending -> in_progress -> (completed | error). Never backwards.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusError      SessionStatus = "error"
)

// SessionTotals accumulates the aggregate counters a session reports (§3).
type SessionTotals struct {
	Listings          int
	CompletedListings int
	EventsProcessed   int
	FeedsProcessed    int
	Added             int
	Updated           int
	Deactivated       int
	Replaced          int
	Unchanged         int
	Errors            int
}

// Add folds another listing's counters into the session totals. Used by
// the "all" orchestration to increment a shared session (§4.4).
func (t *SessionTotals) Add(o SessionTotals) {
	t.Listings += o.Listings
	t.CompletedListings += o.CompletedListings
	t.EventsProcessed += o.EventsProcessed
	t.FeedsProcessed += o.FeedsProcessed
	t.Added += o.Added
	t.Updated += o.Updated
	t.Deactivated += o.Deactivated
	t.Replaced += o.Replaced
	t.Unchanged += o.Unchanged
	t.Errors += o.Errors
}

// SyncSession is one logical sync run with aggregate counters (§3).
type SyncSession struct {
	ID                 string        `gorm:"primaryKey;size:50;unique"`
	SyncType           SyncType      `gorm:"size:10;not null"`
	TargetListingID    *string       `gorm:"size:50"`
	TargetListingName  *string       `gorm:"size:255"`
	TriggeredBy        TriggeredBy   `gorm:"size:20;not null"`
	Status             SessionStatus `gorm:"size:20;not null;default:'pending';index:idx_session_status"`
	StartedAt          time.Time     `gorm:"not null"`
	CompletedAt        *time.Time
	DurationSeconds    float64
	Totals             SessionTotals `gorm:"embedded;embeddedPrefix:totals_"`
	ErrorMessage       *string       `gorm:"type:text"`
	Metadata           string        `gorm:"type:text"` // opaque JSON document
}

// SyncSessionStore defines the session lifecycle operations (C4, §4.3).
type SyncSessionStore interface {
	Open(ctx context.Context, syncType SyncType, targetListingID, targetListingName *string, triggeredBy TriggeredBy) (*SyncSession, error)

	// IncrementTotals performs an atomic read-modify-write against the
	// session row so concurrent per-listing reconcilers can share one
	// "all" session safely (§5, session counters).
	IncrementTotals(ctx context.Context, sessionID string, delta SessionTotals) error

	Complete(ctx context.Context, sessionID string, status SessionStatus, errorMessage *string) (*SyncSession, error)

	Get(ctx context.Context, sessionID string) (*SyncSession, error)
}
