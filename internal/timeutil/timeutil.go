package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for daily logs and report filters.
const DateLayout = "2006-01-02"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// FormatDate truncates value to its calendar date in value's location.
func FormatDate(value time.Time) string {
	return StartOfDay(value).Format(DateLayout)
}

// NormalizeDate validates an ISO calendar date and returns it in canonical form.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", raw)
	}
	return parsed.Format(DateLayout), nil
}

// InDateRange reports whether date lies in [from, to]. Empty bounds are open.
// All values are canonical date strings, which order lexically.
func InDateRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
