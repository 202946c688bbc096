package reconcile

import "time"

// calendarDateLayout is the UTC calendar-date string every date comparison
// in the engine is performed against (§4.5 "Time-zone policy").
const calendarDateLayout = "2006-01-02"

func dateString(t time.Time) string {
	return t.UTC().Format(calendarDateLayout)
}

func sameDate(a, b time.Time) bool {
	return dateString(a) == dateString(b)
}

// overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd),
// excluding the exact same-day turnover boundary (§4.5 Case 4).
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func formatLongDate(t time.Time) string {
	return t.UTC().Format("Monday, January 2, 2006")
}
