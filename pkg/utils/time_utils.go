package utils

import "time"

// CalculateElapsedDays calculates the number of days elapsed since a given time
func CalculateElapsedDays(since time.Time) int {
	return int(time.Since(since).Hours() / 24)
}

// ElapsedDaysAt calculates whole days between since and now, for callers
// that pin "now" once per run so histograms stay deterministic.
func ElapsedDaysAt(since, now time.Time) int {
	return int(now.Sub(since).Hours() / 24)
}
