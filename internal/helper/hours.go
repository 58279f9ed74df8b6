package helper

import (
	"strings"
	"time"
)

// IsQueueOpen reports whether now falls inside the configured service
// hours. Times are "HH:MM" or "HH:MM:SS" in now's location; a closing
// time past midnight wraps into the next day.
func IsQueueOpen(now time.Time, opensAt, closesAt string) bool {
	layout := "15:04:05"

	if strings.Count(opensAt, ":") == 1 {
		opensAt += ":00"
	}
	if strings.Count(closesAt, ":") == 1 {
		closesAt += ":00"
	}

	loc := now.Location()
	openTime, err := time.ParseInLocation(layout, opensAt, loc)
	if err != nil {
		return false
	}
	closeTime, err := time.ParseInLocation(layout, closesAt, loc)
	if err != nil {
		return false
	}

	openTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		openTime.Hour(), openTime.Minute(), openTime.Second(),
		0, loc,
	)
	closeTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		closeTime.Hour(), closeTime.Minute(), closeTime.Second(),
		0, loc,
	)

	if closeTime.Before(openTime) {
		closeTime = closeTime.Add(24 * time.Hour)
		if now.Before(openTime) {
			// Before today's opening, the window that matters is the
			// one that opened yesterday; shift both ends together.
			openTime = openTime.Add(-24 * time.Hour)
			closeTime = closeTime.Add(-24 * time.Hour)
		}
	}

	return now.After(openTime) && now.Before(closeTime)
}
