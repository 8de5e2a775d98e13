package util

import "github.com/dustin/go-humanize"

// FormatSize renders a byte count with binary units, e.g. "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// Percent returns done/total*100 clamped to [0, 100]. A non-positive total yields 0.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(done) / float64(total) * 100
	return min(max(pct, 0), 100)
}

// Reduction returns the size reduction in percent; negative when the result grew.
func Reduction(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}
