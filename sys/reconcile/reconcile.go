package reconcile

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"rentalsync/res/fetch"
	"rentalsync/res/notification"
	"rentalsync/res/store"
)

// Reconciler is the Listing Reconciler (C5): it turns one listing's
// fetched feed events into store mutations, following §4.5 exactly.
type Reconciler struct {
	store    store.Store
	fetcher  fetch.Fetcher
	notifier notification.Notifier
	logger   *log.Logger
}

func NewReconciler(st store.Store, fetcher fetch.Fetcher, notifier notification.Notifier, logger *log.Logger) *Reconciler {
	return &Reconciler{store: st, fetcher: fetcher, notifier: notifier, logger: logger}
}

type feedFetch struct {
	feed   *store.Feed
	events []store.RawEvent
}

// Reconcile runs Steps A-F of §4.5 for one listing. It always returns a
// PerListingResult and the buffered log entries, even on a fatal error
// (Step C propagating a store error): the caller decides how that shapes
// the session.
func (rc *Reconciler) Reconcile(ctx context.Context, input ListingInput) (*PerListingResult, []store.LogEntry, error) {
	result := &PerListingResult{ListingID: input.ListingID, ListingName: input.ListingName, Status: "completed"}
	var entries []store.LogEntry

	if input.ListingHours == 0 {
		input.ListingHours = store.DefaultListingHours
	}

	// Step A: parallel fetch, one goroutine per feed.
	windowStart, windowEnd := fetch.Window(time.Now().UTC())
	fetched := make([]feedFetch, len(input.Feeds))
	var wg sync.WaitGroup
	for i, feed := range input.Feeds {
		wg.Add(1)
		go func(i int, feed *store.Feed) {
			defer wg.Done()
			res, err := rc.fetcher.Fetch(ctx, feed.URL, input.ListingID, windowStart, windowEnd)
			if err != nil {
				rc.logger.Printf("reconcile: feed fetch failed listing=%s url=%s: %v", input.ListingName, feed.URL, err)
				fetched[i] = feedFetch{feed: feed}
				return
			}
			fetched[i] = feedFetch{feed: feed, events: res.Events}
		}(i, feed)
	}
	wg.Wait()
	result.FeedsProcessed = len(fetched)

	// last_synced reflects attempt, not success (§4.5 Step A rationale).
	now := time.Now().UTC()
	for _, ff := range fetched {
		if err := rc.store.Feeds().UpdateLastSynced(ctx, ff.feed.ID, now); err != nil {
			rc.logger.Printf("reconcile: failed to update last_synced feed=%s: %v", ff.feed.ID, err)
		}
	}

	// Step B: merge, filter placeholders, overwrite listing name.
	var merged []store.RawEvent
	for _, ff := range fetched {
		for _, e := range ff.events {
			if e.Title == store.AirbnbPlaceholderTitle {
				continue
			}
			e.Listing = input.ListingName
			merged = append(merged, e)
		}
	}

	if len(merged) == 0 {
		return result, entries, nil
	}

	// Step C: cancellation pass.
	cancelledBookings, cancelEntries, err := rc.cancellationPass(ctx, input.ListingName, merged, input.SessionID)
	entries = append(entries, cancelEntries...)
	if err != nil {
		result.Status = "error"
		result.Errors++
		return result, entries, err
	}
	result.Deactivated += len(cancelledBookings)

	if len(cancelledBookings) > 0 {
		body := formatCancellationBody(cancelledBookings)
		rc.notifier.Send(ctx, cancellationNotificationTitle, body)
	}

	// Step D: per-event pass.
	for _, event := range merged {
		result.Events++
		entry, err := rc.processEvent(ctx, input, merged, event, result)
		if err != nil {
			result.Errors++
			entries = append(entries, rc.buildEntry(input.SessionID, store.OperationError, event.ID, input.ListingName, err.Error(), event))
			continue
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	// Step E: re-evaluate checkout types (I4) after Cases 1/2 may have
	// added/removed turnovers.
	sweepEntries, err := rc.sweepCheckoutTypes(ctx, input.ListingName, merged, input.SessionID, result)
	entries = append(entries, sweepEntries...)
	if err != nil {
		rc.logger.Printf("reconcile: checkout-type sweep failed listing=%s: %v", input.ListingName, err)
	}

	return result, entries, nil
}

// cancellationPass implements Step C. A store error here propagates and
// fails the whole listing (§7, unlike per-event errors in Step D).
func (rc *Reconciler) cancellationPass(ctx context.Context, listingName string, merged []store.RawEvent, sessionID string) ([]*store.Booking, []store.LogEntry, error) {
	active, err := rc.store.Bookings().ListActive(ctx, listingName)
	if err != nil {
		return nil, nil, err
	}

	present := make(map[string]bool, len(merged))
	presentDates := make(map[string]bool, len(merged))
	for _, e := range merged {
		present[e.ID] = true
		presentDates[dateString(e.Start)+"/"+dateString(e.End)] = true
	}

	today := dateString(time.Now().UTC())

	var toDeactivate []string
	var cancelled []*store.Booking
	var entries []store.LogEntry

	for _, b := range active {
		if dateString(b.CheckoutDate) < today {
			continue // I5: past bookings are frozen
		}
		if present[b.EventID] {
			continue
		}
		if presentDates[dateString(b.CheckinDate)+"/"+dateString(b.CheckoutDate)] {
			continue // same dates under a new event_id: replaced in Step D Case 1
		}

		toDeactivate = append(toDeactivate, b.UUID)

		isNew, err := rc.store.ChangeRecords().Insert(ctx, store.ChangeRecord{
			ListingName:     listingName,
			EventID:         b.EventID,
			ChangeType:      store.ChangeTypeCancelled,
			OldCheckinDate:  timePtr(b.CheckinDate),
			OldCheckoutDate: timePtr(b.CheckoutDate),
		})
		if err != nil {
			return nil, entries, err
		}
		if isNew {
			cancelled = append(cancelled, b)
		}

		entries = append(entries, rc.buildEntry(sessionID, store.OperationDeactivated, b.EventID, listingName, "Event no longer exists in iCal feed", b))
	}

	if len(toDeactivate) == 0 {
		return nil, entries, nil
	}

	if err := rc.store.Bookings().Deactivate(ctx, toDeactivate); err != nil {
		return nil, entries, err
	}
	if err := rc.store.CleanerAssignments().DeactivateForBookings(ctx, toDeactivate); err != nil {
		return nil, entries, err
	}

	return cancelled, entries, nil
}

// processEvent implements Step D.1-D.3 for one merged event. On success it
// always returns the log entry for the decision taken; an overlapping new
// event is counted as unchanged and gets an "overlap" unchanged entry.
func (rc *Reconciler) processEvent(ctx context.Context, input ListingInput, merged []store.RawEvent, event store.RawEvent, result *PerListingResult) (*store.LogEntry, error) {
	checkoutType, err := rc.determineCheckoutType(ctx, event.End, input.ListingName, merged, event.ID)
	if err != nil {
		return nil, err
	}

	byID, err := rc.store.Bookings().FindActiveByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	byDates, err := rc.store.Bookings().FindActiveByDateRange(ctx, input.ListingName, event.Start, event.End)
	if err != nil {
		return nil, err
	}

	switch {
	case byDates != nil && byID == nil && byDates.EventID != event.ID:
		// Case 1: replacement by event_id change.
		if err := rc.store.Bookings().Deactivate(ctx, []string{byDates.UUID}); err != nil {
			return nil, err
		}
		if err := rc.store.CleanerAssignments().DeactivateForBookings(ctx, []string{byDates.UUID}); err != nil {
			return nil, err
		}
		if _, err := rc.insertFromEvent(ctx, input, event, checkoutType); err != nil {
			return nil, err
		}
		result.Replaced++
		entry := rc.buildEntry(input.SessionID, store.OperationReplaced, event.ID, input.ListingName, "Replacement: event_id changed for same date range", event)
		return &entry, nil

	case byID != nil && (!sameDate(byID.CheckinDate, event.Start) || !sameDate(byID.CheckoutDate, event.End)):
		// Case 2: date change for the same booking.
		isNew, crErr := rc.store.ChangeRecords().Insert(ctx, store.ChangeRecord{
			ListingName:      input.ListingName,
			EventID:          event.ID,
			ChangeType:       store.ChangeTypeModified,
			OldCheckinDate:   timePtr(byID.CheckinDate),
			OldCheckoutDate:  timePtr(byID.CheckoutDate),
			NewCheckinDate:   timePtr(event.Start),
			NewCheckoutDate:  timePtr(event.End),
		})
		if crErr != nil {
			return nil, crErr
		}
		if isNew {
			body := formatModificationBody(byID, event.Start, event.End)
			rc.notifier.Send(ctx, modificationNotificationTitle, body)
		}

		if err := rc.store.Bookings().Deactivate(ctx, []string{byID.UUID}); err != nil {
			return nil, err
		}
		if err := rc.store.CleanerAssignments().DeactivateForBookings(ctx, []string{byID.UUID}); err != nil {
			return nil, err
		}
		if _, err := rc.insertFromEvent(ctx, input, event, checkoutType); err != nil {
			return nil, err
		}
		result.Replaced++
		entry := rc.buildEntry(input.SessionID, store.OperationReplaced, event.ID, input.ListingName, "Replacement: dates changed", event)
		return &entry, nil

	case byID != nil || byDates != nil:
		// Case 3: same booking, same dates.
		existing := byID
		if existing == nil {
			existing = byDates
		}
		if existing.CheckoutType != checkoutType {
			if err := rc.store.Bookings().UpdateCheckoutType(ctx, existing.UUID, checkoutType); err != nil {
				return nil, err
			}
			result.Updated++
			entry := rc.buildEntry(input.SessionID, store.OperationCheckoutTypeChange, event.ID, input.ListingName, "checkout_type re-derived", event)
			return &entry, nil
		}
		result.Unchanged++
		entry := rc.buildEntry(input.SessionID, store.OperationUnchanged, event.ID, input.ListingName, "No change detected", event)
		return &entry, nil

	default:
		// Case 4: new booking, subject to an overlap guard.
		active, err := rc.store.Bookings().ListActive(ctx, input.ListingName)
		if err != nil {
			return nil, err
		}
		for _, b := range active {
			if overlaps(event.Start, event.End, b.CheckinDate, b.CheckoutDate) {
				result.Unchanged++
				entry := rc.buildEntry(input.SessionID, store.OperationUnchanged, event.ID, input.ListingName, "overlap", event)
				return &entry, nil
			}
		}

		if _, err := rc.insertFromEvent(ctx, input, event, checkoutType); err != nil {
			return nil, err
		}
		result.Added++
		entry := rc.buildEntry(input.SessionID, store.OperationAdded, event.ID, input.ListingName, "New booking observed", event)
		return &entry, nil
	}
}

func (rc *Reconciler) insertFromEvent(ctx context.Context, input ListingInput, event store.RawEvent, checkoutType store.CheckoutType) (*store.Booking, error) {
	return rc.store.Bookings().Insert(ctx, store.NewBookingFields{
		EventID:      event.ID,
		ListingID:    input.ListingID,
		ListingName:  input.ListingName,
		ListingHours: input.ListingHours,
		CheckinDate:  event.Start,
		CheckoutDate: event.End,
		CheckoutType: checkoutType,
		CheckoutTime: store.DefaultCheckoutTime,
		EventType:    store.EventTypeIcal,
	})
}

// determineCheckoutType implements the two-stage lookup from §4.5 Step D.1
// and §9: merged batch first (so a booking inserted earlier this pass
// participates in its neighbors' derivation), then the store.
func (rc *Reconciler) determineCheckoutType(ctx context.Context, endDate time.Time, listingName string, merged []store.RawEvent, selfEventID string) (store.CheckoutType, error) {
	for _, m := range merged {
		if m.ID == selfEventID {
			continue
		}
		if sameDate(m.Start, endDate) && !sameDate(m.End, endDate) {
			return store.CheckoutTypeSameDay, nil
		}
	}

	active, err := rc.store.Bookings().ListActive(ctx, listingName)
	if err != nil {
		return "", err
	}
	for _, b := range active {
		if b.EventID == selfEventID {
			continue
		}
		if sameDate(b.CheckinDate, endDate) && !sameDate(b.CheckoutDate, endDate) {
			return store.CheckoutTypeSameDay, nil
		}
	}

	return store.CheckoutTypeOpen, nil
}

// sweepCheckoutTypes implements Step E: recompute every active booking's
// checkout type against the merged set and persist any change.
func (rc *Reconciler) sweepCheckoutTypes(ctx context.Context, listingName string, merged []store.RawEvent, sessionID string, result *PerListingResult) ([]store.LogEntry, error) {
	active, err := rc.store.Bookings().ListActive(ctx, listingName)
	if err != nil {
		return nil, err
	}

	var entries []store.LogEntry
	for _, b := range active {
		checkoutType, err := rc.determineCheckoutType(ctx, b.CheckoutDate, listingName, merged, b.EventID)
		if err != nil {
			rc.logger.Printf("reconcile: checkout-type sweep lookup failed listing=%s event=%s: %v", listingName, b.EventID, err)
			continue
		}
		if checkoutType == b.CheckoutType {
			continue
		}
		if err := rc.store.Bookings().UpdateCheckoutType(ctx, b.UUID, checkoutType); err != nil {
			rc.logger.Printf("reconcile: checkout-type sweep update failed listing=%s event=%s: %v", listingName, b.EventID, err)
			continue
		}
		result.Updated++
		entries = append(entries, rc.buildEntry(sessionID, store.OperationCheckoutTypeChange, b.EventID, listingName, "checkout_type re-derived during sweep (I4)", b))
	}

	return entries, nil
}

func (rc *Reconciler) buildEntry(sessionID string, op store.Operation, eventID, listingName, reasoning string, details interface{}) store.LogEntry {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		rc.logger.Printf("reconcile: failed to marshal log details: %v", err)
		detailsJSON = []byte("{}")
	}
	return store.LogEntry{
		SyncSessionID: sessionID,
		Operation:     op,
		EventID:       eventID,
		ListingName:   listingName,
		EventDetails:  string(detailsJSON),
		Reasoning:     reasoning,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
