package store

import (
	"context"
	"time"
)

// CheckoutType represents whether another guest arrives the day this
// booking's guest checks out (§3, §4.5 step D.1).
type CheckoutType string

const (
	CheckoutTypeSameDay CheckoutType = "same_day"
	CheckoutTypeOpen    CheckoutType = "open"
)

// EventType distinguishes bookings produced by iCal reconciliation from
// ones entered by hand outside the sync engine.
type EventType string

const (
	EventTypeIcal   EventType = "ical"
	EventTypeManual EventType = "manual"
)

// DefaultListingHours is substituted when a listing's Hours is zero/unset (§4.5).
const DefaultListingHours = 2.0

// DefaultCheckoutTime is persisted when a feed does not provide one (§4.5).
const DefaultCheckoutTime = "10:00:00"

// AirbnbPlaceholderTitle marks an availability block that is not a real
// reservation and must be filtered out (§4.5 Step B).
const AirbnbPlaceholderTitle = "Airbnb (Not available)"

// RawEvent is the ephemeral, normalized booking produced by a Feed Fetcher
// (C1). It is never persisted directly; the Reconciler turns it into a
// Booking.
type RawEvent struct {
	ID      string
	Title   string
	Start   time.Time
	End     time.Time
	Listing string
}

// Booking is a persisted reservation row (§3).
type Booking struct {
	UUID         string       `gorm:"primaryKey;size:50;unique"`
	EventID      string       `gorm:"size:255;not null;index:idx_booking_event_id"` // not unique across history, unique across active set (I1)
	ListingID    string       `gorm:"size:50;not null;index:idx_booking_listing"`
	ListingName  string       `gorm:"size:255;not null;index:idx_booking_listing_name"`
	ListingHours float64      `gorm:"type:decimal(5,2);not null"`
	CheckinDate  time.Time    `gorm:"not null;index:idx_booking_checkin"`
	CheckoutDate time.Time    `gorm:"not null;index:idx_booking_checkout"`
	CheckoutType CheckoutType `gorm:"size:20;not null"`
	CheckoutTime string       `gorm:"size:10;not null"`
	EventType    EventType    `gorm:"size:10;not null;default:'ical'"`
	IsActive     bool         `gorm:"not null;default:true;index:idx_booking_active"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// NewBookingFields carries the values needed to insert a Booking.
type NewBookingFields struct {
	EventID      string
	ListingID    string
	ListingName  string
	ListingHours float64
	CheckinDate  time.Time
	CheckoutDate time.Time
	CheckoutType CheckoutType
	CheckoutTime string
	EventType    EventType
}

// BookingStore defines the data access interface the Reconciler relies on.
// Every method is "fresh" — never served from a cache that predates the
// current fetch (§4.2). The Reconciler does not assume cross-call
// transactionality; it recovers by re-reading state (§5).
type BookingStore interface {
	// ListActive returns all active iCal bookings for a listing.
	ListActive(ctx context.Context, listingName string) ([]*Booking, error)

	// FindActiveByEventID returns at most one booking, per I1.
	FindActiveByEventID(ctx context.Context, eventID string) (*Booking, error)

	// FindActiveByDateRange supports replacement detection (Case 1/2, §4.5).
	FindActiveByDateRange(ctx context.Context, listingName string, checkin, checkout time.Time) (*Booking, error)

	Insert(ctx context.Context, fields NewBookingFields) (*Booking, error)
	UpdateCheckoutType(ctx context.Context, uuid string, checkoutType CheckoutType) error
	Deactivate(ctx context.Context, uuids []string) error
}
