package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an inclusive, 1-based page interval.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages covered by the range.
func (r PageRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Within reports whether the range is usable against a document of pageCount pages.
func (r PageRange) Within(pageCount int) bool {
	return r.Start >= 1 && r.Start <= r.End && r.End <= pageCount
}

// String renders the range as a page selection ("3-5", or "7" for a single page).
func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseRanges parses a comma-separated range spec such as "1-3,5-7,10".
// Malformed tokens are dropped. Bounds are not checked here; see PageRange.Within.
func ParseRanges(spec string) []PageRange {
	var ranges []PageRange
	for _, part := range strings.Split(spec, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		if strings.Contains(token, "-") {
			bounds := strings.Split(token, "-")
			if len(bounds) != 2 {
				continue
			}
			start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil {
				continue
			}
			end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil {
				continue
			}
			ranges = append(ranges, PageRange{Start: start, End: end})
			continue
		}
		page, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		ranges = append(ranges, PageRange{Start: page, End: page})
	}
	return ranges
}

// Windows partitions [1, pageCount] into consecutive ranges of size pagesPerFile.
// The last window may be shorter. pagesPerFile < 1 is treated as 1.
func Windows(pageCount, pagesPerFile int) []PageRange {
	if pagesPerFile < 1 {
		pagesPerFile = 1
	}
	if pageCount < 1 {
		return nil
	}
	windows := make([]PageRange, 0, (pageCount+pagesPerFile-1)/pagesPerFile)
	for start := 1; start <= pageCount; start += pagesPerFile {
		windows = append(windows, PageRange{Start: start, End: min(start+pagesPerFile-1, pageCount)})
	}
	return windows
}
