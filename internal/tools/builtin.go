package tools

import (
	"sync"

	"swissknife/internal/pdf"
)

// Options configures the built-in tool set.
type Options struct {
	Codec     pdf.Codec
	Remote    Opener
	ChunkSize int
}

// Builtin returns the hash, merge, split and compress tools.
func Builtin(opts Options) []Tool {
	codec := opts.Codec
	if codec == nil {
		codec = pdf.NewPdfcpu()
	}
	return []Tool{
		NewHashTool(opts.ChunkSize, opts.Remote),
		NewMergeTool(codec),
		NewSplitTool(codec),
		NewCompressTool(codec),
	}
}

// Monotonic wraps fn so that reported percentages never decrease within a run.
// Indeterminate updates pass through unchanged.
func Monotonic(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return nil
	}
	var (
		mu   sync.Mutex
		last float64
	)
	return func(p Progress) {
		mu.Lock()
		if p.Percentage != nil {
			pct := *p.Percentage
			if pct < last {
				pct = last
			}
			pct = min(max(pct, 0), 100)
			last = pct
			p.Percentage = &pct
		}
		mu.Unlock()
		fn(p)
	}
}
