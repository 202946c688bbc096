package store

import (
	"context"
	"time"
)

// Listing represents a rental property that owns one or more calendar feeds.
type Listing struct {
	ID         string `gorm:"primaryKey;size:50;unique"`
	ExternalID string `gorm:"size:100;not null;index:idx_listing_external"`
	Name       string `gorm:"size:255;not null;index:idx_listing_name"`
	Hours      float64 `gorm:"type:decimal(5,2);not null;default:2.0"`
	Color      *string `gorm:"size:20"`
	BankAccount *string `gorm:"size:100"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// IsManual reports whether this listing has no iCal-backed feeds and is
// excluded from sync_all by convention (external id prefixed "manual-").
func (l *Listing) IsManual() bool {
	return len(l.ExternalID) >= len(ManualListingPrefix) && l.ExternalID[:len(ManualListingPrefix)] == ManualListingPrefix
}

// ManualListingPrefix marks listings that are not backed by any iCal feed.
const ManualListingPrefix = "manual-"

// ListingStore defines the data access interface for listings (C2, §4.2).
type ListingStore interface {
	Get(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context) ([]*Listing, error)
}

// Feed represents a single calendar URL published by a booking platform.
type Feed struct {
	ID         string     `gorm:"primaryKey;size:50;unique"`
	ListingID  string     `gorm:"size:50;not null;index:idx_feed_listing"`
	URL        string     `gorm:"size:2048;not null"`
	Name       string     `gorm:"size:255;not null"`
	IsActive   bool       `gorm:"not null;default:true;index:idx_feed_active"`
	LastSynced *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// FeedStore defines the data access interface for feeds (C2, §4.2).
type FeedStore interface {
	ListForListing(ctx context.Context, listingID string) ([]*Feed, error)
	UpdateLastSynced(ctx context.Context, feedID string, syncedAt time.Time) error
}
