package reconcile_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"rentalsync/res/fetch"
	"rentalsync/res/notification"
	"rentalsync/res/store"
	"rentalsync/sys/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns a canned set of RawEvents per feed URL, standing in
// for a real iCal fetch (res/fetch/ical) in these unit tests.
type fakeFetcher struct {
	events map[string][]store.RawEvent
	err    map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, feedURL, listingID string, windowStart, windowEnd time.Time) (fetch.Result, error) {
	if err, ok := f.err[feedURL]; ok {
		return fetch.Result{}, err
	}
	return fetch.Result{Events: f.events[feedURL]}, nil
}

// fakeNotifier records every Send call instead of delivering anywhere.
type fakeNotifier struct {
	calls []struct{ title, body string }
}

func (n *fakeNotifier) Send(ctx context.Context, title, body string) bool {
	n.calls = append(n.calls, struct{ title, body string }{title, body})
	return true
}

var _ notification.Notifier = (*fakeNotifier)(nil)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "(test)", 0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func baseInput(listingID, listingName string, feed *store.Feed) reconcile.ListingInput {
	return reconcile.ListingInput{
		ListingID:    listingID,
		ListingName:  listingName,
		ListingHours: 2.0,
		Feeds:        []*store.Feed{feed},
		SessionID:    "sess_test",
	}
}

// S1: first sync inserts a new booking with no prior state.
func TestReconcile_FirstSyncInsertsBooking(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-1", Title: "Reservation", Start: day(2026, 8, 1), End: day(2026, 8, 5), Listing: "Seaside Cottage"},
		},
	}}
	notifier := &fakeNotifier{}
	rc := reconcile.NewReconciler(fs, fetcher, notifier, testLogger())

	result, entries, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 1, result.FeedsProcessed)
	require.Len(t, fs.bookings, 1)
	assert.Equal(t, "evt-1", fs.bookings[0].EventID)
	assert.Equal(t, store.CheckoutTypeOpen, fs.bookings[0].CheckoutType)
	require.Len(t, entries, 1)
	assert.Equal(t, store.OperationAdded, entries[0].Operation)
}

// Same-day turnover: a second booking checks in the day the first checks
// out, so the first must be derived as same_day (§4.5 Step D.1).
func TestReconcile_SameDayTurnoverDerivesCheckoutType(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-1", Title: "Reservation", Start: day(2026, 8, 1), End: day(2026, 8, 5)},
			{ID: "evt-2", Title: "Reservation", Start: day(2026, 8, 5), End: day(2026, 8, 9)},
		},
	}}
	rc := reconcile.NewReconciler(fs, fetcher, &fakeNotifier{}, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	require.Len(t, fs.bookings, 2)

	byEvent := map[string]*store.Booking{}
	for _, b := range fs.bookings {
		byEvent[b.EventID] = b
	}
	assert.Equal(t, store.CheckoutTypeSameDay, byEvent["evt-1"].CheckoutType)
	assert.Equal(t, store.CheckoutTypeOpen, byEvent["evt-2"].CheckoutType)
}

// Cancellation: a previously-active booking absent from the merged feed
// is deactivated, its cleaner assignment cascaded, a cancelled change
// record written, and the notifier invoked (§4.5 Step C).
func TestReconcile_CancellationDeactivatesMissingBooking(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	existing := &store.Booking{
		UUID: "booking_1", EventID: "evt-gone", ListingID: "listing_1", ListingName: "Seaside Cottage",
		CheckinDate: day(2099, 8, 1), CheckoutDate: day(2099, 8, 5), CheckoutType: store.CheckoutTypeOpen,
		EventType: store.EventTypeIcal, IsActive: true,
	}
	fs.bookings = append(fs.bookings, existing)
	fs.assigns = append(fs.assigns, &store.CleanerAssignment{UUID: "assign_1", EventUUID: "booking_1", IsActive: true})

	// The feed now only contains an unrelated future event, so evt-gone
	// is absent from merged and must be cancelled.
	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-other", Title: "Reservation", Start: day(2099, 9, 1), End: day(2099, 9, 5)},
		},
	}}
	notifier := &fakeNotifier{}
	rc := reconcile.NewReconciler(fs, fetcher, notifier, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deactivated)
	assert.False(t, existing.IsActive)
	assert.False(t, fs.assigns[0].IsActive)
	require.Len(t, fs.changes, 1)
	assert.Equal(t, store.ChangeTypeCancelled, fs.changes[0].ChangeType)
	require.Len(t, notifier.calls, 1)
}

// Date-change replacement (Case 2): the same event_id reappears with a
// different date range, so the old booking is replaced rather than
// updated in place.
func TestReconcile_DateChangeReplacesBooking(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	existing := &store.Booking{
		UUID: "booking_1", EventID: "evt-1", ListingID: "listing_1", ListingName: "Seaside Cottage",
		CheckinDate: day(2026, 8, 1), CheckoutDate: day(2026, 8, 5), CheckoutType: store.CheckoutTypeOpen,
		EventType: store.EventTypeIcal, IsActive: true,
	}
	fs.bookings = append(fs.bookings, existing)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-1", Title: "Reservation", Start: day(2026, 8, 3), End: day(2026, 8, 7)},
		},
	}}
	notifier := &fakeNotifier{}
	rc := reconcile.NewReconciler(fs, fetcher, notifier, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Replaced)
	assert.False(t, existing.IsActive)

	var active []*store.Booking
	for _, b := range fs.bookings {
		if b.IsActive {
			active = append(active, b)
		}
	}
	require.Len(t, active, 1)
	assert.True(t, day(2026, 8, 3).Equal(active[0].CheckinDate))
	require.Len(t, fs.changes, 1)
	assert.Equal(t, store.ChangeTypeModified, fs.changes[0].ChangeType)
	require.Len(t, notifier.calls, 1)
}

// event_id swap for the same date range (Case 1): the booking platform
// reissued a new event_id but the dates are unchanged, so the prior
// booking is replaced under the new event_id without a modification
// notice.
func TestReconcile_EventIDSwapReplacesBooking(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	existing := &store.Booking{
		UUID: "booking_1", EventID: "evt-old", ListingID: "listing_1", ListingName: "Seaside Cottage",
		CheckinDate: day(2099, 8, 1), CheckoutDate: day(2099, 8, 5), CheckoutType: store.CheckoutTypeOpen,
		EventType: store.EventTypeIcal, IsActive: true,
	}
	fs.bookings = append(fs.bookings, existing)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-new", Title: "Reservation", Start: day(2099, 8, 1), End: day(2099, 8, 5)},
		},
	}}
	notifier := &fakeNotifier{}
	rc := reconcile.NewReconciler(fs, fetcher, notifier, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Replaced)
	assert.False(t, existing.IsActive)
	assert.Empty(t, notifier.calls)

	var active []*store.Booking
	for _, b := range fs.bookings {
		if b.IsActive {
			active = append(active, b)
		}
	}
	require.Len(t, active, 1)
	assert.Equal(t, "evt-new", active[0].EventID)
}

// Idempotent re-run: reconciling the same merged set twice in a row must
// not duplicate bookings or change records on the second pass.
func TestReconcile_IdempotentRerun(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-1", Title: "Reservation", Start: day(2026, 8, 1), End: day(2026, 8, 5)},
		},
	}}
	rc := reconcile.NewReconciler(fs, fetcher, &fakeNotifier{}, testLogger())

	_, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	require.Len(t, fs.bookings, 1)

	result2, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Added)
	assert.Equal(t, 0, result2.Replaced)
	assert.Equal(t, 1, result2.Unchanged)
	assert.Len(t, fs.bookings, 1)
}

// An overlapping new event is rejected rather than inserted (Case 4 guard).
func TestReconcile_OverlapIsRejected(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fs.bookings = append(fs.bookings, &store.Booking{
		UUID: "booking_1", EventID: "evt-existing", ListingID: "listing_1", ListingName: "Seaside Cottage",
		CheckinDate: day(2026, 8, 1), CheckoutDate: day(2026, 8, 10), CheckoutType: store.CheckoutTypeOpen,
		EventType: store.EventTypeIcal, IsActive: true,
	})

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-overlap", Title: "Reservation", Start: day(2026, 8, 5), End: day(2026, 8, 8)},
		},
	}}
	rc := reconcile.NewReconciler(fs, fetcher, &fakeNotifier{}, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Unchanged)
	assert.Len(t, fs.bookings, 1)
}

// Placeholder "Airbnb (Not available)" blocks never become bookings.
func TestReconcile_PlaceholdersAreFiltered(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fetcher := &fakeFetcher{events: map[string][]store.RawEvent{
		feed.URL: {
			{ID: "evt-block", Title: store.AirbnbPlaceholderTitle, Start: day(2026, 8, 1), End: day(2026, 8, 5)},
		},
	}}
	rc := reconcile.NewReconciler(fs, fetcher, &fakeNotifier{}, testLogger())

	result, entries, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Events)
	assert.Empty(t, entries)
	assert.Empty(t, fs.bookings)
}

// A feed fetch error is swallowed into "0 events from that feed" rather
// than failing the whole listing (§4.1).
func TestReconcile_FeedFetchErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	feed := &store.Feed{ID: "feed_1", ListingID: "listing_1", URL: "https://example.com/cal.ics", IsActive: true}
	fs.feeds = append(fs.feeds, feed)

	fetcher := &fakeFetcher{err: map[string]error{feed.URL: &fetch.Error{Kind: fetch.ErrorKindNetwork, URL: feed.URL, Err: context.DeadlineExceeded}}}
	rc := reconcile.NewReconciler(fs, fetcher, &fakeNotifier{}, testLogger())

	result, _, err := rc.Reconcile(ctx, baseInput("listing_1", "Seaside Cottage", feed))
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 0, result.Events)
	assert.Equal(t, 1, result.FeedsProcessed)
}
