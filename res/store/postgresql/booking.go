package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalsync/res/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingStore struct {
	*storeImpl
}

func NewBookingStore(rootStore *storeImpl) *bookingStore {
	return &bookingStore{storeImpl: rootStore}
}

func (bs *bookingStore) ListActive(ctx context.Context, listingName string) ([]*store.Booking, error) {
	var bookings []*store.Booking
	err := bs.db.WithContext(ctx).
		Where("listing_name = ?", listingName).
		Where("is_active = ?", true).
		Where("event_type = ?", store.EventTypeIcal).
		Order("checkin_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (bs *bookingStore) FindActiveByEventID(ctx context.Context, eventID string) (*store.Booking, error) {
	var booking store.Booking
	result := bs.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Where("is_active = ?", true).
		First(&booking)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &booking, nil
}

func (bs *bookingStore) FindActiveByDateRange(ctx context.Context, listingName string, checkin, checkout time.Time) (*store.Booking, error) {
	var booking store.Booking
	result := bs.db.WithContext(ctx).
		Where("listing_name = ?", listingName).
		Where("is_active = ?", true).
		Where("DATE(checkin_date) = DATE(?)", checkin).
		Where("DATE(checkout_date) = DATE(?)", checkout).
		Order("created_at ASC").
		First(&booking)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &booking, nil
}

func (bs *bookingStore) Insert(ctx context.Context, fields store.NewBookingFields) (*store.Booking, error) {
	booking := &store.Booking{
		UUID:         uuid.New().String(),
		EventID:      fields.EventID,
		ListingID:    fields.ListingID,
		ListingName:  fields.ListingName,
		ListingHours: fields.ListingHours,
		CheckinDate:  fields.CheckinDate,
		CheckoutDate: fields.CheckoutDate,
		CheckoutType: fields.CheckoutType,
		CheckoutTime: fields.CheckoutTime,
		EventType:    fields.EventType,
		IsActive:     true,
	}

	result := bs.db.WithContext(ctx).Create(booking)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, fmt.Errorf("failed to insert booking")
	}
	return booking, nil
}

func (bs *bookingStore) UpdateCheckoutType(ctx context.Context, bookingUUID string, checkoutType store.CheckoutType) error {
	result := bs.db.WithContext(ctx).Model(&store.Booking{}).
		Where("uuid = ?", bookingUUID).
		Update("checkout_type", checkoutType)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("booking not found (uuid: %s)", bookingUUID)
	}
	return nil
}

func (bs *bookingStore) Deactivate(ctx context.Context, uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}
	return bs.db.WithContext(ctx).Model(&store.Booking{}).
		Where("uuid IN ?", uuids).
		Update("is_active", false).Error
}
