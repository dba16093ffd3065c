package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"worktally/internal/timeutil"
)

// parseHours accepts "7.5", "7,5" and "1.234,5".
func parseHours(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("hours are empty")
	}
	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", raw, err)
	}
	if hours < 0 {
		return 0, fmt.Errorf("hours must not be negative")
	}
	return hours, nil
}

// parseDate accepts ISO dates, German dates and timestamps and returns the
// calendar date as YYYY-MM-DD.
func parseDate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("date is empty")
	}

	layouts := []string{
		timeutil.DateLayout,
		"02.01.2006",
		"01/02/2006",
		time.RFC3339,
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return timeutil.FormatDate(parsed), nil
		}
	}
	return "", fmt.Errorf("unsupported date format: %q", raw)
}

// parseWorkItemID accepts "42" and "#42".
func parseWorkItemID(raw string) (int, error) {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid work item id %q", raw)
	}
	return id, nil
}
