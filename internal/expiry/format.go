package expiry

import (
	"fmt"
	"time"
)

// FormatDate renders a timestamp the way item cards display it.
func FormatDate(date time.Time) string {
	return date.Format("Jan 2, 2006")
}

// FormatRelativeTime renders a day-granular countdown with special cases
// for the adjacent days.
func FormatRelativeTime(date time.Time, now Clock) string {
	days := DaysRemaining(date, now)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// DetailedTimeRemaining renders a sub-day countdown used for fruits, down to
// the second. Once the target passes it returns "Expired".
func DetailedTimeRemaining(date time.Time, now Clock) string {
	diff := date.Sub(now())
	if diff <= 0 {
		return "Expired"
	}
	hours := int(diff / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)
	seconds := int(diff % time.Minute / time.Second)
	switch {
	case hours > 24:
		return fmt.Sprintf("%dd %dh %dm", hours/24, hours%24, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
