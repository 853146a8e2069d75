package timeutil

import "time"

// DayString formats t as 'YYYY-MM-DD'. Daily usage buckets are keyed on it.
func DayString(t time.Time) string {
	return t.Format("2006-01-02")
}

// HistoryStamp formats t as 'YYYYmmdd_HHMMSS', the document ID format used
// for history subcollection snapshots.
func HistoryStamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// PeriodStart returns the lower bound for a usage period relative to now.
// Supported periods are "today", "week" and "month"; anything else means no
// lower bound and the zero time is returned.
func PeriodStart(now time.Time, period string) time.Time {
	switch period {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, 0, -30)
	}
	return time.Time{}
}
