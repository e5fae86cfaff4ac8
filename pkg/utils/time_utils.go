package utils

import (
	"fmt"
	"math"
	"time"
)

// MaxHours is the first hour count that no longer fits in a time.Duration.
const MaxHours = float64(math.MaxInt64) / float64(time.Hour)

// HoursToDuration converts a possibly fractional number of hours to a time.Duration.
// Values past the time.Duration range saturate instead of wrapping.
func HoursToDuration(hours float64) time.Duration {
	d := hours * float64(time.Hour)
	switch {
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(d)
}

// FormatHours formats a duration as hours, dropping a zero fraction
// Example: 48h -> "48h", 90m -> "1.5h"
func FormatHours(d time.Duration) string {
	h := d.Hours()
	if h == float64(int64(h)) {
		return fmt.Sprintf("%dh", int64(h))
	}
	return fmt.Sprintf("%.1fh", h)
}
