package rental

import "time"

// Days returns the inclusive day count between start and end: a rental that
// starts and ends on the same date is one day. Returns 0 when end precedes
// start.
func Days(start, end time.Time) int {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// TotalPrice is the fare for a date range at the given per-day rate.
func TotalPrice(pricePerDay int, start, end time.Time) int {
	return pricePerDay * Days(start, end)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
