package pdf

import "strings"

// Level is a qualitative size/quality trade-off for compression.
type Level int

const (
	Low Level = iota
	Medium
	High
)

// Value maps the level onto the codec's 0-9 compression scale (9 is maximum compression).
func (l Level) Value() int {
	switch l {
	case Low:
		return 3
	case High:
		return 9
	default:
		return 6
	}
}

func (l Level) String() string {
	switch l {
	case Low:
		return "Low"
	case High:
		return "High"
	default:
		return "Medium"
	}
}

// ParseLevel maps "Low", "Medium" or "High" (any case) to a Level.
// Anything else yields Medium.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low
	case "high":
		return High
	default:
		return Medium
	}
}
