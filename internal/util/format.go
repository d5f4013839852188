package util

import (
	"fmt"
	"time"
)

// FormatDateTime formats a timestamp for tables (2006-01-02 15:04).
// Zero times render as "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatScore formats a metric in [0,1] with four decimals.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// FormatBytes formats a byte count with K/M suffix for readability.
// Examples: 500 -> "500B", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatBytes(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%dB", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
