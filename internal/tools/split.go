package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"swissknife/internal/pdf"
	"swissknife/internal/util"
)

const (
	SplitToolID = "pdf.split"

	ModePages = "pages"
	ModeRange = "range"
)

// SplitTool partitions a PDF into several documents, by fixed page windows or by
// explicit ranges.
type SplitTool struct {
	codec pdf.Codec
}

// NewSplitTool constructs a split tool over codec.
func NewSplitTool(codec pdf.Codec) *SplitTool {
	return &SplitTool{codec: codec}
}

func (s *SplitTool) ID() string   { return SplitToolID }
func (s *SplitTool) Name() string { return "PDF Split" }

func (s *SplitTool) Description() string {
	return "Split a PDF into several documents by pages per file or by page ranges."
}

// Parameters:
//   - mode: "pages" (default) or "range"
//   - pagesPerFile: positive integer, default 1 (pages mode)
//   - range: comma-separated ranges such as "1-3,5-7,10" (range mode)
func (s *SplitTool) Run(ctx context.Context, tc Context) (Result, error) {
	input := tc.Input()
	if input == "" {
		return Failure(KindValidation, "PDF file not specified"), nil
	}
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Failure(KindNotFound, "PDF file does not exist: %s", input), nil
		}
		return FailureFrom(err, "checking "+input), nil
	}
	outDir := tc.OutputPath
	if outDir == "" {
		return Failure(KindValidation, "output directory not specified"), nil
	}

	mode := strings.ToLower(tc.Param("mode", ModePages))
	rangeSpec := tc.Param("range", "")
	pagesPerFile, err := strconv.Atoi(tc.Param("pagesPerFile", "1"))
	if err != nil || pagesPerFile < 1 {
		pagesPerFile = 1
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return FailureFrom(err, "creating output directory"), nil
	}

	tc.logf("opening PDF file: %s", filepath.Base(input))
	doc, err := s.codec.Open(input)
	if err != nil {
		return FailureFrom(err, "opening "+filepath.Base(input)), nil
	}
	defer doc.Close()
	tc.logf("total pages: %d", doc.PageCount())

	namer := newPartNamer(input, outDir)
	if mode == ModeRange && rangeSpec != "" {
		err = s.splitRanges(ctx, tc, doc, rangeSpec, namer)
	} else {
		if mode == ModeRange {
			tc.logf("range mode without a range; splitting %d page(s) per file", pagesPerFile)
		}
		err = s.splitWindows(ctx, tc, doc, pagesPerFile, namer)
	}
	if err != nil {
		if IsCancelled(err) {
			tc.logf("operation cancelled")
			return Result{}, err
		}
		return FailureFrom(err, "splitting "+filepath.Base(input)), nil
	}

	tc.logf("split completed")
	return Success(outDir), nil
}

func (s *SplitTool) splitWindows(ctx context.Context, tc Context, doc pdf.Document, pagesPerFile int, namer partNamer) error {
	windows := pdf.Windows(doc.PageCount(), pagesPerFile)
	for i, w := range windows {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		name := namer.part(i+1, w)
		tc.logf("creating %s (pages %d-%d)", filepath.Base(name), w.Start, w.End)
		if err := s.codec.ExtractPages(doc, w, name); err != nil {
			return err
		}
		tc.report(Determinate(util.Percent(int64(i+1), int64(len(windows))), fmt.Sprintf("extracted pages %d-%d", w.Start, w.End)))
	}
	tc.logf("created %d PDF files", len(windows))
	return nil
}

func (s *SplitTool) splitRanges(ctx context.Context, tc Context, doc pdf.Document, expr string, namer partNamer) error {
	ranges := pdf.ParseRanges(expr)
	created := 0
	for i, r := range ranges {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		if r.Within(doc.PageCount()) {
			created++
			name := namer.rangePart(created, r)
			tc.logf("creating %s (pages %d-%d)", filepath.Base(name), r.Start, r.End)
			if err := s.codec.ExtractPages(doc, r, name); err != nil {
				return err
			}
		} else {
			tc.logf("skipping invalid range %d-%d", r.Start, r.End)
		}
		// Skipped ranges count as processed.
		tc.report(Determinate(util.Percent(int64(i+1), int64(len(ranges))), fmt.Sprintf("extracted range %d/%d", i+1, len(ranges))))
	}
	tc.logf("created %d PDF files from %d ranges", created, len(ranges))
	return nil
}

type partNamer struct {
	dir  string
	base string
	ext  string
}

func newPartNamer(input, dir string) partNamer {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".pdf"
	}
	return partNamer{dir: dir, base: strings.TrimSuffix(filepath.Base(input), ext), ext: ext}
}

// part names pages-mode output: <base>_part001_p1-3.pdf
func (n partNamer) part(index int, r pdf.PageRange) string {
	return filepath.Join(n.dir, fmt.Sprintf("%s_part%03d_p%d-%d%s", n.base, index, r.Start, r.End, n.ext))
}

// rangePart names range-mode output: <base>_range01_p5-7.pdf
func (n partNamer) rangePart(index int, r pdf.PageRange) string {
	return filepath.Join(n.dir, fmt.Sprintf("%s_range%02d_p%d-%d%s", n.base, index, r.Start, r.End, n.ext))
}
