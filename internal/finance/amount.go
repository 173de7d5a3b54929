package finance

import (
	"math"
	"strconv"
	"strings"
	"time"

	"studiodesk/internal/models"
)

// ParseAmount reads a stored or submitted amount. Missing or unparsable
// values count as zero; negative values are returned as is.
func ParseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatAmount renders an amount the way it is stored: no exponent, no
// trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDate parses a YYYY-MM-DD service date into midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(raw))
}

// CalendarDay drops the time of day, keeping the calendar date of t as seen
// in t's own location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeStatus applies the single default for records without a status.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return models.StatusPending
	}
	return status
}
