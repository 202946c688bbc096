package postgresql

import (
	"context"
	"time"

	"rentalsync/res/store"

	"github.com/rs/xid"
	"gorm.io/gorm"
)

type syncSessionStore struct {
	*storeImpl
}

func NewSyncSessionStore(rootStore *storeImpl) *syncSessionStore {
	return &syncSessionStore{storeImpl: rootStore}
}

func (ss *syncSessionStore) Open(ctx context.Context, syncType store.SyncType, targetListingID, targetListingName *string, triggeredBy store.TriggeredBy) (*store.SyncSession, error) {
	session := &store.SyncSession{
		ID:                "sess_" + xid.New().String(),
		SyncType:          syncType,
		TargetListingID:   targetListingID,
		TargetListingName: targetListingName,
		TriggeredBy:       triggeredBy,
		Status:            store.SessionStatusInProgress,
		StartedAt:         time.Now().UTC(),
	}

	if err := ss.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// IncrementTotals performs an atomic read-modify-write against the session
// row (col = col + delta) so concurrent per-listing reconcilers sharing an
// "all" session never lose an update (§5).
func (ss *syncSessionStore) IncrementTotals(ctx context.Context, sessionID string, delta store.SessionTotals) error {
	updates := map[string]interface{}{
		"totals_listings":           gorm.Expr("totals_listings + ?", delta.Listings),
		"totals_completed_listings": gorm.Expr("totals_completed_listings + ?", delta.CompletedListings),
		"totals_events_processed":   gorm.Expr("totals_events_processed + ?", delta.EventsProcessed),
		"totals_feeds_processed":    gorm.Expr("totals_feeds_processed + ?", delta.FeedsProcessed),
		"totals_added":              gorm.Expr("totals_added + ?", delta.Added),
		"totals_updated":            gorm.Expr("totals_updated + ?", delta.Updated),
		"totals_deactivated":        gorm.Expr("totals_deactivated + ?", delta.Deactivated),
		"totals_replaced":           gorm.Expr("totals_replaced + ?", delta.Replaced),
		"totals_unchanged":          gorm.Expr("totals_unchanged + ?", delta.Unchanged),
		"totals_errors":             gorm.Expr("totals_errors + ?", delta.Errors),
	}

	return ss.db.WithContext(ctx).Model(&store.SyncSession{}).
		Where("id = ?", sessionID).
		Updates(updates).Error
}

func (ss *syncSessionStore) Complete(ctx context.Context, sessionID string, status store.SessionStatus, errorMessage *string) (*store.SyncSession, error) {
	now := time.Now().UTC()

	var session store.SyncSession
	if err := ss.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           status,
		"completed_at":     now,
		"duration_seconds": now.Sub(session.StartedAt).Seconds(),
		"error_message":    errorMessage,
	}

	if err := ss.db.WithContext(ctx).Model(&store.SyncSession{}).Where("id = ?", sessionID).Updates(updates).Error; err != nil {
		return nil, err
	}

	return ss.Get(ctx, sessionID)
}

func (ss *syncSessionStore) Get(ctx context.Context, sessionID string) (*store.SyncSession, error) {
	var session store.SyncSession
	if err := ss.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}
