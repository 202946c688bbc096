// Package ical is the default, concrete Feed Fetcher (C1): it performs the
// HTTP GET against a booking platform's published calendar URL and decodes
// the semantic fields the engine needs out of the VEVENT components. The
// raw iCalendar grammar itself is explicitly out of the core's scope
// (spec §1 Non-goals); this package exists only to give the Fetcher
// interface a runnable default implementation.
package ical

import (
	"context"
	"net/http"
	"time"

	"rentalsync/res/fetch"
	"rentalsync/res/store"

	ical "github.com/emersion/go-ical"
)

// Fetcher performs an HTTP GET against a feed URL and decodes VEVENT
// components into RawEvents.
type Fetcher struct {
	httpClient *http.Client
}

// New creates a Fetcher bounded by the per-request timeout (§6,
// fetcher_timeout_seconds, default 30s).
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL, listingID string, windowStart, windowEnd time.Time) (fetch.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fetch.Result{}, &fetch.Error{Kind: fetch.ErrorKindNetwork, URL: feedURL, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fetch.Result{}, &fetch.Error{Kind: fetch.ErrorKindNetwork, URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetch.Result{}, &fetch.Error{Kind: fetch.ErrorKindHTTPStatus, URL: feedURL, Err: errStatusCode(resp.StatusCode)}
	}

	cal, err := ical.NewDecoder(resp.Body).Decode()
	if err != nil {
		return fetch.Result{}, &fetch.Error{Kind: fetch.ErrorKindParse, URL: feedURL, Err: err}
	}

	var events []store.RawEvent
	var detectedName string

	for _, vevent := range cal.Events() {
		uid, _ := vevent.Props.Text(ical.PropUID)
		summary, _ := vevent.Props.Text(ical.PropSummary)
		start, errStart := vevent.Props.DateTime(ical.PropDateTimeStart, time.UTC)
		end, errEnd := vevent.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
		if errStart != nil || errEnd != nil || uid == "" {
			continue
		}
		if end.Before(start) {
			start, end = end, start
		}
		if start.Before(windowStart) || start.After(windowEnd) {
			continue
		}

		events = append(events, store.RawEvent{
			ID:      uid,
			Title:   summary,
			Start:   start,
			End:     end,
			Listing: listingID,
		})

		if detectedName == "" && summary != "" && summary != store.AirbnbPlaceholderTitle {
			detectedName = summary
		}
	}

	return fetch.Result{Events: events, DetectedListingName: detectedName}, nil
}

type errStatusCode int

func (e errStatusCode) Error() string {
	return "unexpected HTTP status"
}
