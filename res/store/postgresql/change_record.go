package postgresql

import (
	"context"

	"rentalsync/res/store"

	"github.com/rs/xid"
)

type changeRecordStore struct {
	*storeImpl
}

func NewChangeRecordStore(rootStore *storeImpl) *changeRecordStore {
	return &changeRecordStore{storeImpl: rootStore}
}

// Insert is deduplicated on the full tuple (I6): a byte-identical record
// already present means no new row is written and false is returned.
func (cs *changeRecordStore) Insert(ctx context.Context, record store.ChangeRecord) (bool, error) {
	query := cs.db.WithContext(ctx).Model(&store.ChangeRecord{}).
		Where("listing_name = ?", record.ListingName).
		Where("event_id = ?", record.EventID).
		Where("change_type = ?", record.ChangeType)
	query = equalDateClause(query, "old_checkin_date", record.OldCheckinDate)
	query = equalDateClause(query, "old_checkout_date", record.OldCheckoutDate)
	query = equalDateClause(query, "new_checkin_date", record.NewCheckinDate)
	query = equalDateClause(query, "new_checkout_date", record.NewCheckoutDate)
	query = equalStringClause(query, "old_event_id", record.OldEventID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	record.ID = "chg_" + xid.New().String()
	if err := cs.db.WithContext(ctx).Create(&record).Error; err != nil {
		return false, err
	}
	return true, nil
}
