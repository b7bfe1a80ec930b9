// Package expiry holds the freshness math: rating-to-expiry conversion,
// day-granular countdowns, and status classification. Everything is pure
// given a clock, so callers inject one instead of reaching for time.Now.
package expiry

import "time"

// Clock supplies the current time. Tests substitute a fixed instant.
type Clock func() time.Time

// FreshnessStep is how much shelf life one freshness point buys. 0.6 days
// per point, so a full 5-point rating equals 3 days. The alternative 1-day
// scaling seen in later revisions was rejected; this is the canonical policy.
const FreshnessStep = 6 * 24 * time.Hour / 10

// StatusThresholdDays is the day window in which an item counts as
// "expiring" rather than "fresh".
const StatusThresholdDays = 1

// Status classifies an item relative to its expiry date.
type Status string

const (
	StatusExpired  Status = "expired"
	StatusExpiring Status = "expiring"
	StatusFresh    Status = "fresh"
)

// FreshnessToExpiryDate converts a 1-5 rating into an expiry timestamp of
// now + rating*FreshnessStep. Ratings are not range-checked; out-of-range
// values scale proportionally.
func FreshnessToExpiryDate(rating int, now Clock) time.Time {
	return now().Add(time.Duration(rating) * FreshnessStep)
}

// DaysRemaining returns the whole-day distance to date, with both sides
// normalized to midnight. Positive means future, negative past, zero today.
func DaysRemaining(date time.Time, now Clock) int {
	target := midnight(date)
	today := midnight(now())
	diff := target.Sub(today)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}

// StatusFor maps a DaysRemaining result onto a Status.
func StatusFor(daysRemaining int) Status {
	switch {
	case daysRemaining < 0:
		return StatusExpired
	case daysRemaining <= StatusThresholdDays:
		return StatusExpiring
	default:
		return StatusFresh
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
