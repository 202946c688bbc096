package reconcile

import (
	"fmt"
	"strings"
	"time"

	"rentalsync/res/store"
)

const cancellationNotificationTitle = "Booking cancellations detected"
const modificationNotificationTitle = "Booking changes detected"

// formatCancellationBody builds the cancellation alert body (§6): one
// bullet per newly cancelled booking, followed by a call to action.
func formatCancellationBody(cancelled []*store.Booking) string {
	var sb strings.Builder
	for _, b := range cancelled {
		sb.WriteString(fmt.Sprintf("- %s: check-in %s, check-out %s\n", b.ListingName, formatLongDate(b.CheckinDate), formatLongDate(b.CheckoutDate)))
	}
	sb.WriteString("Please review these changes and take appropriate action.")
	return sb.String()
}

// formatModificationBody builds the modification alert body (§6): per
// modified booking, the event identity plus OLD/NEW check-in/check-out
// blocks separated by a divider.
func formatModificationBody(old *store.Booking, newCheckin, newCheckout time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Event changed: %s, ID: %s\n", old.ListingName, old.EventID))
	sb.WriteString(fmt.Sprintf("OLD check-in: %s, check-out: %s\n", formatLongDate(old.CheckinDate), formatLongDate(old.CheckoutDate)))
	sb.WriteString(fmt.Sprintf("NEW check-in: %s, check-out: %s\n", formatLongDate(newCheckin), formatLongDate(newCheckout)))
	sb.WriteString("---")
	return sb.String()
}
