package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentalsync/res/store"
)

// Config is the Orchestrator's tunable surface (§6 configuration surface).
type Config struct {
	// Concurrency bounds how many listings sync_all runs at once.
	Concurrency int
	// WallClockBudget is the overall time budget for a sync_all run; zero
	// means no budget (§5 "no hard default").
	WallClockBudget time.Duration
}

const DefaultConcurrency = 5

// Orchestrator is the Sync Orchestrator (C6): it opens sessions, dispatches
// listings into a bounded worker pool, and aggregates results (§4.4).
type Orchestrator struct {
	store         store.Store
	reconciler    *Reconciler
	sessionLogger *SessionLogger
	logger        *log.Logger
	concurrency   int
	wallClockBudget time.Duration
}

func NewOrchestrator(st store.Store, reconciler *Reconciler, sessionLogger *SessionLogger, logger *log.Logger, cfg Config) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		store:           st,
		reconciler:      reconciler,
		sessionLogger:   sessionLogger,
		logger:          logger,
		concurrency:     concurrency,
		wallClockBudget: cfg.WallClockBudget,
	}
}

// ListingOutcome is what sync_listing hands back (§6).
type ListingOutcome struct {
	Success   bool
	Result    *PerListingResult
	SessionID string
	Error     error
}

// SyncListing runs one listing through the Reconciler. If sessionID is
// nil, a new "single" session is opened and owned (completed on exit);
// otherwise the caller's session is joined and only incremented (§4.4,
// §9 "owns-session" vs "joins-session").
func (o *Orchestrator) SyncListing(ctx context.Context, listingID string, sessionID *string) (*ListingOutcome, error) {
	listing, err := o.store.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("sync_listing: failed to load listing %s: %w", listingID, err)
	}

	ownsSession := sessionID == nil
	var sid string
	if ownsSession {
		targetID, targetName := listing.ID, listing.Name
		session, err := o.sessionLogger.OpenSession(ctx, store.SyncTypeSingle, &targetID, &targetName, store.TriggeredByManual)
		if err != nil {
			return nil, fmt.Errorf("sync_listing: failed to open session: %w", err)
		}
		sid = session.ID
	} else {
		sid = *sessionID
	}

	result, entries := o.runListing(ctx, listing, sid)
	o.sessionLogger.Flush(ctx, entries)
	if err := o.sessionLogger.IncrementTotals(ctx, sid, result.Totals()); err != nil {
		o.logger.Printf("sync_listing: failed to increment totals session=%s: %v", sid, err)
	}

	outcome := &ListingOutcome{
		Success:   result.Status == "completed",
		Result:    result,
		SessionID: sid,
	}

	if ownsSession {
		status := store.SessionStatusCompleted
		var errorMessage *string
		if result.Status == "error" {
			status = store.SessionStatusError
			errorMessage = errPtr("listing reconcile failed")
		}
		if _, err := o.sessionLogger.CompleteSession(ctx, sid, status, errorMessage); err != nil {
			o.logger.Printf("sync_listing: failed to complete session=%s: %v", sid, err)
		}
	}

	return outcome, nil
}

// runListing loads a listing's feeds and runs the Reconciler, converting
// a feed-listing error into an errored PerListingResult instead of
// propagating (sync_all keeps going for the other listings).
func (o *Orchestrator) runListing(ctx context.Context, listing *store.Listing, sessionID string) (*PerListingResult, []store.LogEntry) {
	feeds, err := o.store.Feeds().ListForListing(ctx, listing.ID)
	if err != nil {
		o.logger.Printf("reconcile: failed to list feeds listing=%s: %v", listing.Name, err)
		return &PerListingResult{ListingID: listing.ID, ListingName: listing.Name, Status: "error", Errors: 1}, nil
	}

	hours := listing.Hours
	if hours == 0 {
		hours = store.DefaultListingHours
	}

	result, entries, err := o.reconciler.Reconcile(ctx, ListingInput{
		ListingID:    listing.ID,
		ListingName:  listing.Name,
		ListingHours: hours,
		Feeds:        feeds,
		SessionID:    sessionID,
	})
	if err != nil {
		o.logger.Printf("reconcile: listing=%s failed: %v", listing.Name, err)
	}
	return result, entries
}

// AggregateOutcome is what sync_all hands back (§6).
type AggregateOutcome struct {
	Success   bool
	Summary   store.SessionTotals
	SessionID string
	Results   []*PerListingResult
	Error     error
}

// SyncAll opens an "all" session, filters out manual listings, and
// dispatches the rest into a bounded worker pool of fixed concurrency
// (§4.4, §5).
func (o *Orchestrator) SyncAll(ctx context.Context, triggeredBy store.TriggeredBy) (*AggregateOutcome, error) {
	session, err := o.sessionLogger.OpenSession(ctx, store.SyncTypeAll, nil, nil, triggeredBy)
	if err != nil {
		return nil, fmt.Errorf("sync_all: failed to open session: %w", err)
	}
	sid := session.ID

	listings, err := o.store.Listings().List(ctx)
	if err != nil {
		msg := fmt.Sprintf("failed to list listings: %v", err)
		o.sessionLogger.CompleteSession(ctx, sid, store.SessionStatusError, &msg)
		return &AggregateOutcome{SessionID: sid, Error: err}, nil
	}

	var targets []*store.Listing
	for _, l := range listings {
		if l.IsManual() {
			continue
		}
		targets = append(targets, l)
	}

	runCtx := ctx
	if o.wallClockBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.wallClockBudget)
		defer cancel()
	}

	results := make([]*PerListingResult, len(targets))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	var anyErrors bool
	var mu sync.Mutex

	for i, listing := range targets {
		if runCtx.Err() != nil {
			// Wall-clock budget or caller cancellation: stop dispatching
			// new listings, record the rest as errors (§5 cancellation
			// semantics), and let in-flight goroutines finish naturally.
			results[i] = &PerListingResult{ListingID: listing.ID, ListingName: listing.Name, Status: "error", Errors: 1}
			if err := o.sessionLogger.IncrementTotals(ctx, sid, results[i].Totals()); err != nil {
				o.logger.Printf("sync_all: failed to increment totals listing=%s: %v", listing.Name, err)
			}
			mu.Lock()
			anyErrors = true
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, listing *store.Listing) {
			defer wg.Done()
			defer func() { <-sem }()

			result, entries := o.runListing(runCtx, listing, sid)
			o.sessionLogger.Flush(runCtx, entries)
			if err := o.sessionLogger.IncrementTotals(ctx, sid, result.Totals()); err != nil {
				o.logger.Printf("sync_all: failed to increment totals listing=%s: %v", listing.Name, err)
			}

			results[i] = result
			if result.Status != "completed" {
				mu.Lock()
				anyErrors = true
				mu.Unlock()
			}
		}(i, listing)
	}

	wg.Wait()

	status := store.SessionStatusCompleted
	var errorMessage *string
	if runCtx.Err() != nil {
		status = store.SessionStatusError
		errorMessage = errPtr("cancelled")
	}

	finalSession, err := o.sessionLogger.CompleteSession(ctx, sid, status, errorMessage)
	if err != nil {
		o.logger.Printf("sync_all: failed to complete session=%s: %v", sid, err)
	}

	var totals store.SessionTotals
	if finalSession != nil {
		totals = finalSession.Totals
	}

	return &AggregateOutcome{
		Success:   !anyErrors && status == store.SessionStatusCompleted,
		Summary:   totals,
		SessionID: sid,
		Results:   results,
	}, nil
}
