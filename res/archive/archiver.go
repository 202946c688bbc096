// Package archive ships a completed sync session's summary and full entry
// log to durable object storage for long-term retention, outside the
// primary Store. Archival is strictly best-effort: a failure here never
// blocks or fails a sync session, it is only logged by the caller
// (cmd/main.go's archiveSession, which runs after the session completes).
package archive

import (
	"context"

	"rentalsync/res/store"
)

// Archiver persists a finished session's summary and decision log
// somewhere durable, so the full record of what happened survives beyond
// whatever retention the primary Store applies to LogEntry rows.
type Archiver interface {
	Archive(ctx context.Context, session *store.SyncSession, entries []store.LogEntry) error
}

// Noop is used when no archival backend is configured.
type Noop struct{}

func (Noop) Archive(ctx context.Context, session *store.SyncSession, entries []store.LogEntry) error {
	return nil
}
