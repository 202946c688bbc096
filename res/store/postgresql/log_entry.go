package postgresql

import (
	"context"

	"rentalsync/res/store"

	"github.com/rs/xid"
)

type logEntryStore struct {
	*storeImpl
}

func NewLogEntryStore(rootStore *storeImpl) *logEntryStore {
	return &logEntryStore{storeImpl: rootStore}
}

// InsertBatch appends every buffered entry with multi-row inserts of up to
// 100 rows per statement, minimizing write amplification the way the
// Session Logger's flush contract expects (§4.3).
func (les *logEntryStore) InsertBatch(ctx context.Context, entries []store.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = "log_" + xid.New().String()
		}
	}
	return les.db.WithContext(ctx).CreateInBatches(entries, 100).Error
}

// ListBySession returns a session's full decision log in write order, for
// archival (§1 "enough context to replay what happened").
func (les *logEntryStore) ListBySession(ctx context.Context, sessionID string) ([]store.LogEntry, error) {
	var entries []store.LogEntry
	err := les.db.WithContext(ctx).
		Where("sync_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
