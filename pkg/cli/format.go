package cli

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats a duration to a short human readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	if secs < 3600 {
		mins := int(secs / 60)
		return fmt.Sprintf("%dm%.1fs", mins, secs-float64(mins*60))
	}
	hours := int(secs / 3600)
	mins := int(secs/60) - hours*60
	return fmt.Sprintf("%dh%02dm", hours, mins)
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes < 0:
		return "unknown"
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDB formats a level in dBFS with one decimal.
func FormatDB(db float64) string {
	if math.IsInf(db, -1) {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", db)
}

// FormatRate formats a sample rate, e.g. "48 kHz" or "44.1 kHz".
func FormatRate(hz int) string {
	if hz%1000 == 0 {
		return fmt.Sprintf("%d kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f kHz", float64(hz)/1000)
}
