// Package reconcile is the core reconciliation engine: the Listing
// Reconciler (C5) and the Sync Orchestrator (C6), backed by the Session
// Logger (C4).
package reconcile

import (
	"rentalsync/res/store"
)

// ListingInput is everything a Reconciler needs to run one listing (§4.5).
type ListingInput struct {
	ListingID    string
	ListingName  string
	ListingHours float64
	Feeds        []*store.Feed
	SessionID    string
}

// PerListingResult is the counter set a Reconciler hands back to the
// Orchestrator (§4.5 Step F).
type PerListingResult struct {
	ListingID      string
	ListingName    string
	Added          int
	Updated        int
	Replaced       int
	Deactivated    int
	Unchanged      int
	Errors         int
	Events         int
	FeedsProcessed int
	Status         string // "completed" or "error"
}

// Totals converts a per-listing result into the delta folded into a
// SyncSession's aggregate counters (§4.3, §5 session counters).
func (r *PerListingResult) Totals() store.SessionTotals {
	completed := 0
	if r.Status == "completed" {
		completed = 1
	}
	return store.SessionTotals{
		Listings:          1,
		CompletedListings: completed,
		EventsProcessed:   r.Events,
		FeedsProcessed:    r.FeedsProcessed,
		Added:             r.Added,
		Updated:           r.Updated,
		Deactivated:       r.Deactivated,
		Replaced:          r.Replaced,
		Unchanged:         r.Unchanged,
		Errors:            r.Errors,
	}
}

func errPtr(msg string) *string {
	return &msg
}
