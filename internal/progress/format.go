package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rate returns the bit rate for delta bytes received over elapsed.
func Rate(delta int64, elapsed time.Duration) float64 {
	if elapsed <= 0 || delta <= 0 {
		return 0
	}
	return float64(delta) * 8 / elapsed.Seconds()
}

// FormatRate formats a bit rate using 1000-based SI prefixes.
func FormatRate(bitsPerSec float64) string {
	const (
		kbit = 1000
		mbit = kbit * 1000
		gbit = mbit * 1000
	)

	switch {
	case bitsPerSec >= gbit:
		return fmt.Sprintf("%.2f Gbit/s", bitsPerSec/gbit)
	case bitsPerSec >= mbit:
		return fmt.Sprintf("%.2f Mbit/s", bitsPerSec/mbit)
	case bitsPerSec >= kbit:
		return fmt.Sprintf("%.2f kbit/s", bitsPerSec/kbit)
	default:
		return fmt.Sprintf("%.2f bit/s", bitsPerSec)
	}
}

// Gigabytes converts b to binary gigabytes (1024^3).
func Gigabytes(b int64) float64 {
	return float64(b) / (1024 * 1024 * 1024)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string (e.g., "2MB").
// Units are binary: KB is 1024 bytes.
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	input := s
	s = strings.ToUpper(strings.TrimSpace(s))

	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid byte string: %q", input)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative byte string: %q", input)
	}
	if value*float64(multiplier) >= math.MaxInt64 {
		return 0, fmt.Errorf("byte string out of range: %q", input)
	}

	return int64(value * float64(multiplier)), nil
}
