package reconcile_test

import (
	"context"
	"sync"
	"time"

	"rentalsync/res/store"

	"github.com/google/uuid"
)

// fakeStore is a minimal in-memory store.Store used to exercise the
// Reconciler/Orchestrator without a real database, the way a fixture for
// the booking-sync engine's own unit tests would be built.
type fakeStore struct {
	mu sync.Mutex

	listings []*store.Listing
	feeds    []*store.Feed
	bookings []*store.Booking
	changes  []store.ChangeRecord
	assigns  []*store.CleanerAssignment
	sessions []*store.SyncSession
	entries  []store.LogEntry
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (fs *fakeStore) Listings() store.ListingStore                     { return (*fakeListingStore)(fs) }
func (fs *fakeStore) Feeds() store.FeedStore                           { return (*fakeFeedStore)(fs) }
func (fs *fakeStore) Bookings() store.BookingStore                     { return (*fakeBookingStore)(fs) }
func (fs *fakeStore) ChangeRecords() store.ChangeRecordStore           { return (*fakeChangeRecordStore)(fs) }
func (fs *fakeStore) CleanerAssignments() store.CleanerAssignmentStore { return (*fakeCleanerAssignmentStore)(fs) }
func (fs *fakeStore) SyncSessions() store.SyncSessionStore             { return (*fakeSyncSessionStore)(fs) }
func (fs *fakeStore) LogEntries() store.LogEntryStore                  { return (*fakeLogEntryStore)(fs) }
func (fs *fakeStore) GetDB() interface{}                               { return fs }

type fakeListingStore fakeStore

func (ls *fakeListingStore) Get(ctx context.Context, id string) (*store.Listing, error) {
	fs := (*fakeStore)(ls)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, l := range fs.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ls *fakeListingStore) List(ctx context.Context) ([]*store.Listing, error) {
	fs := (*fakeStore)(ls)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]*store.Listing, len(fs.listings))
	copy(out, fs.listings)
	return out, nil
}

type fakeFeedStore fakeStore

func (feS *fakeFeedStore) ListForListing(ctx context.Context, listingID string) ([]*store.Feed, error) {
	fs := (*fakeStore)(feS)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*store.Feed
	for _, f := range fs.feeds {
		if f.ListingID == listingID && f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (feS *fakeFeedStore) UpdateLastSynced(ctx context.Context, feedID string, syncedAt time.Time) error {
	fs := (*fakeStore)(feS)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, f := range fs.feeds {
		if f.ID == feedID {
			f.LastSynced = &syncedAt
		}
	}
	return nil
}

type fakeBookingStore fakeStore

func (bs *fakeBookingStore) ListActive(ctx context.Context, listingName string) ([]*store.Booking, error) {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*store.Booking
	for _, b := range fs.bookings {
		if b.ListingName == listingName && b.IsActive && b.EventType == store.EventTypeIcal {
			out = append(out, b)
		}
	}
	return out, nil
}

func (bs *fakeBookingStore) FindActiveByEventID(ctx context.Context, eventID string) (*store.Booking, error) {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, b := range fs.bookings {
		if b.EventID == eventID && b.IsActive {
			return b, nil
		}
	}
	return nil, nil
}

func (bs *fakeBookingStore) FindActiveByDateRange(ctx context.Context, listingName string, checkin, checkout time.Time) (*store.Booking, error) {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, b := range fs.bookings {
		if b.ListingName == listingName && b.IsActive &&
			b.CheckinDate.Format("2006-01-02") == checkin.Format("2006-01-02") &&
			b.CheckoutDate.Format("2006-01-02") == checkout.Format("2006-01-02") {
			return b, nil
		}
	}
	return nil, nil
}

func (bs *fakeBookingStore) Insert(ctx context.Context, fields store.NewBookingFields) (*store.Booking, error) {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	b := &store.Booking{
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
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	fs.bookings = append(fs.bookings, b)
	return b, nil
}

func (bs *fakeBookingStore) UpdateCheckoutType(ctx context.Context, uid string, checkoutType store.CheckoutType) error {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, b := range fs.bookings {
		if b.UUID == uid {
			b.CheckoutType = checkoutType
			b.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (bs *fakeBookingStore) Deactivate(ctx context.Context, uuids []string) error {
	fs := (*fakeStore)(bs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	set := make(map[string]bool, len(uuids))
	for _, u := range uuids {
		set[u] = true
	}
	for _, b := range fs.bookings {
		if set[b.UUID] {
			b.IsActive = false
		}
	}
	return nil
}

type fakeChangeRecordStore fakeStore

func (cs *fakeChangeRecordStore) Insert(ctx context.Context, record store.ChangeRecord) (bool, error) {
	fs := (*fakeStore)(cs)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, existing := range fs.changes {
		if changeRecordsEqual(existing, record) {
			return false, nil
		}
	}
	fs.changes = append(fs.changes, record)
	return true, nil
}

func changeRecordsEqual(a, b store.ChangeRecord) bool {
	return a.ListingName == b.ListingName &&
		a.EventID == b.EventID &&
		a.ChangeType == b.ChangeType &&
		timePtrEqual(a.OldCheckinDate, b.OldCheckinDate) &&
		timePtrEqual(a.OldCheckoutDate, b.OldCheckoutDate) &&
		timePtrEqual(a.NewCheckinDate, b.NewCheckinDate) &&
		timePtrEqual(a.NewCheckoutDate, b.NewCheckoutDate)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type fakeCleanerAssignmentStore fakeStore

func (cas *fakeCleanerAssignmentStore) DeactivateForBookings(ctx context.Context, bookingUUIDs []string) error {
	fs := (*fakeStore)(cas)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	set := make(map[string]bool, len(bookingUUIDs))
	for _, u := range bookingUUIDs {
		set[u] = true
	}
	for _, a := range fs.assigns {
		if set[a.EventUUID] {
			a.IsActive = false
		}
	}
	return nil
}

type fakeSyncSessionStore fakeStore

func (ss *fakeSyncSessionStore) Open(ctx context.Context, syncType store.SyncType, targetListingID, targetListingName *string, triggeredBy store.TriggeredBy) (*store.SyncSession, error) {
	fs := (*fakeStore)(ss)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	session := &store.SyncSession{
		ID:                "sess_" + uuid.New().String(),
		SyncType:          syncType,
		TargetListingID:   targetListingID,
		TargetListingName: targetListingName,
		TriggeredBy:       triggeredBy,
		Status:            store.SessionStatusInProgress,
		StartedAt:         time.Now().UTC(),
	}
	fs.sessions = append(fs.sessions, session)
	return session, nil
}

func (ss *fakeSyncSessionStore) IncrementTotals(ctx context.Context, sessionID string, delta store.SessionTotals) error {
	fs := (*fakeStore)(ss)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, s := range fs.sessions {
		if s.ID == sessionID {
			s.Totals.Add(delta)
		}
	}
	return nil
}

func (ss *fakeSyncSessionStore) Complete(ctx context.Context, sessionID string, status store.SessionStatus, errorMessage *string) (*store.SyncSession, error) {
	fs := (*fakeStore)(ss)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, s := range fs.sessions {
		if s.ID == sessionID {
			s.Status = status
			s.ErrorMessage = errorMessage
			now := time.Now().UTC()
			s.CompletedAt = &now
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ss *fakeSyncSessionStore) Get(ctx context.Context, sessionID string) (*store.SyncSession, error) {
	fs := (*fakeStore)(ss)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, s := range fs.sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeLogEntryStore fakeStore

func (les *fakeLogEntryStore) InsertBatch(ctx context.Context, entries []store.LogEntry) error {
	fs := (*fakeStore)(les)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.entries = append(fs.entries, entries...)
	return nil
}

func (les *fakeLogEntryStore) ListBySession(ctx context.Context, sessionID string) ([]store.LogEntry, error) {
	fs := (*fakeStore)(les)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []store.LogEntry
	for _, e := range fs.entries {
		if e.SyncSessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}
