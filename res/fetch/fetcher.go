package fetch

import (
	"context"
	"fmt"
	"time"

	"rentalsync/res/store"
)

// ErrorKind classifies why a feed fetch failed (§4.1).
type ErrorKind string

const (
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindHTTPStatus ErrorKind = "http_status"
	ErrorKindParse      ErrorKind = "parse"
)

// Error wraps a feed-fetch failure with its classification. The
// Reconciler never branches on Kind; it prints the error, Kind included,
// to its process logger and carries on (§7: FeedFetchError is swallowed
// into "0 events from that feed"). No session log entry is written for it.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch: %s (%s): %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is what a Fetcher returns for one feed window (§4.1).
type Result struct {
	Events              []store.RawEvent
	DetectedListingName string
}

// Fetcher is the Feed Fetcher collaborator (C1). Implementations must
// guarantee Start <= End on every returned event and must not touch the
// Store. A returned error is always classified as an *Error; the caller
// (the Reconciler) treats any error as "no events from this feed" and
// continues with the rest of the listing's feeds (§4.1, §4.5 Step A).
type Fetcher interface {
	Fetch(ctx context.Context, feedURL, listingID string, windowStart, windowEnd time.Time) (Result, error)
}

// DefaultWindowPastDays and DefaultWindowFutureDays define the fetch
// window the engine requests: [now - 90d, now + 180d] (§4.1, §6).
const (
	DefaultWindowPastDays   = 90
	DefaultWindowFutureDays = 180
)

// Window returns the default fetch window anchored at now.
func Window(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -DefaultWindowPastDays), now.AddDate(0, 0, DefaultWindowFutureDays)
}
