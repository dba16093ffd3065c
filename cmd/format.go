package cmd

import (
	"strconv"

	"worktally/report"
)

func formatHours(hours float64) string {
	return strconv.FormatFloat(report.RoundHours(hours), 'f', -1, 64)
}
