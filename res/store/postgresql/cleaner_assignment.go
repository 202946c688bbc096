package postgresql

import (
	"context"

	"rentalsync/res/store"
)

type cleanerAssignmentStore struct {
	*storeImpl
}

func NewCleanerAssignmentStore(rootStore *storeImpl) *cleanerAssignmentStore {
	return &cleanerAssignmentStore{storeImpl: rootStore}
}

// DeactivateForBookings cascades is_active=false to every assignment of a
// deactivated booking (I3).
func (cas *cleanerAssignmentStore) DeactivateForBookings(ctx context.Context, bookingUUIDs []string) error {
	if len(bookingUUIDs) == 0 {
		return nil
	}
	return cas.db.WithContext(ctx).Model(&store.CleanerAssignment{}).
		Where("event_uuid IN ?", bookingUUIDs).
		Update("is_active", false).Error
}
