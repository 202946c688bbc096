package postgresql

import (
	"context"
	"errors"
	"time"

	"rentalsync/res/store"

	"gorm.io/gorm"
)

type listingStore struct {
	*storeImpl
}

func NewListingStore(rootStore *storeImpl) *listingStore {
	return &listingStore{storeImpl: rootStore}
}

func (ls *listingStore) Get(ctx context.Context, id string) (*store.Listing, error) {
	var listing store.Listing
	result := ls.db.WithContext(ctx).Where("id = ?", id).First(&listing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, result.Error
	}
	return &listing, nil
}

func (ls *listingStore) List(ctx context.Context) ([]*store.Listing, error) {
	var listings []*store.Listing
	if err := ls.db.WithContext(ctx).Order("name ASC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

type feedStore struct {
	*storeImpl
}

func NewFeedStore(rootStore *storeImpl) *feedStore {
	return &feedStore{storeImpl: rootStore}
}

func (fs *feedStore) ListForListing(ctx context.Context, listingID string) ([]*store.Feed, error) {
	var feeds []*store.Feed
	err := fs.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Where("is_active = ?", true).
		Find(&feeds).Error
	if err != nil {
		return nil, err
	}
	return feeds, nil
}

func (fs *feedStore) UpdateLastSynced(ctx context.Context, feedID string, syncedAt time.Time) error {
	return fs.db.WithContext(ctx).Model(&store.Feed{}).
		Where("id = ?", feedID).
		Update("last_synced", syncedAt).Error
}
