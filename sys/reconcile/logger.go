package reconcile

import (
	"context"
	"log"
	"sync"

	"rentalsync/res/store"
)

// SessionLogger wraps the SyncSession/LogEntry stores with the buffering
// contract from §4.3: entries are accumulated per reconcile and flushed
// as one batch. If a flush fails, entries move to a secondary in-memory
// buffer and are retried at the next flush or at session close; if that
// retry also fails the entries are dropped and a counter is incremented
// (§7, SessionLoggerError: "logging must not mask real errors").
type SessionLogger struct {
	sessions store.SyncSessionStore
	entries  store.LogEntryStore
	logger   *log.Logger

	mu        sync.Mutex
	secondary []store.LogEntry
	dropped   int
}

func NewSessionLogger(st store.Store, logger *log.Logger) *SessionLogger {
	return &SessionLogger{
		sessions: st.SyncSessions(),
		entries:  st.LogEntries(),
		logger:   logger,
	}
}

func (sl *SessionLogger) OpenSession(ctx context.Context, syncType store.SyncType, targetListingID, targetListingName *string, triggeredBy store.TriggeredBy) (*store.SyncSession, error) {
	return sl.sessions.Open(ctx, syncType, targetListingID, targetListingName, triggeredBy)
}

// Flush writes a reconcile's buffered entries in one batch, retrying
// anything stranded from a previous failed flush first.
func (sl *SessionLogger) Flush(ctx context.Context, entries []store.LogEntry) {
	if len(entries) == 0 && !sl.hasSecondary() {
		return
	}

	sl.mu.Lock()
	pending := append(sl.secondary, entries...)
	sl.secondary = nil
	sl.mu.Unlock()

	if err := sl.entries.InsertBatch(ctx, pending); err != nil {
		sl.logger.Printf("session logger: failed to flush %d entries, buffering for retry: %v", len(pending), err)
		sl.mu.Lock()
		sl.secondary = append(sl.secondary, pending...)
		sl.mu.Unlock()
	}
}

func (sl *SessionLogger) hasSecondary() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.secondary) > 0
}

func (sl *SessionLogger) IncrementTotals(ctx context.Context, sessionID string, delta store.SessionTotals) error {
	return sl.sessions.IncrementTotals(ctx, sessionID, delta)
}

// CompleteSession makes a final attempt to flush anything stranded in the
// secondary buffer, drops what still fails (incrementing the drop
// counter), and closes the session.
func (sl *SessionLogger) CompleteSession(ctx context.Context, sessionID string, status store.SessionStatus, errorMessage *string) (*store.SyncSession, error) {
	sl.mu.Lock()
	stranded := sl.secondary
	sl.secondary = nil
	sl.mu.Unlock()

	if len(stranded) > 0 {
		if err := sl.entries.InsertBatch(ctx, stranded); err != nil {
			sl.mu.Lock()
			sl.dropped += len(stranded)
			count := sl.dropped
			sl.mu.Unlock()
			sl.logger.Printf("session logger: dropping %d log entries after repeated flush failure (total dropped: %d): %v", len(stranded), count, err)
		}
	}

	return sl.sessions.Complete(ctx, sessionID, status, errorMessage)
}

// Dropped returns the count of log entries permanently lost to repeated
// flush failures, for observability.
func (sl *SessionLogger) Dropped() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.dropped
}
