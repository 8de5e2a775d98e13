package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"swissknife/internal/paths"
	"swissknife/internal/pdf"
	"swissknife/internal/util"
)

const MergeToolID = "pdf.merge"

// MergeTool concatenates several PDF documents into one, preserving input order.
type MergeTool struct {
	codec pdf.Codec
}

// NewMergeTool constructs a merge tool over codec.
func NewMergeTool(codec pdf.Codec) *MergeTool {
	return &MergeTool{codec: codec}
}

func (m *MergeTool) ID() string   { return MergeToolID }
func (m *MergeTool) Name() string { return "PDF Merge" }

func (m *MergeTool) Description() string {
	return "Merge two or more PDF files into a single document."
}

func (m *MergeTool) Run(ctx context.Context, tc Context) (Result, error) {
	inputs := paths.SplitList(tc.InputPaths)
	if len(inputs) == 0 {
		return Failure(KindValidation, "no PDF files specified for merge"), nil
	}
	output := tc.OutputPath
	if output == "" {
		return Failure(KindValidation, "output path not specified"), nil
	}
	if len(inputs) < 2 {
		return Failure(KindValidation, "at least 2 PDF files are required to merge, got %d", len(inputs)), nil
	}
	for _, input := range inputs {
		if _, err := os.Stat(input); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Failure(KindNotFound, "file not found: %s", input), nil
			}
			return FailureFrom(err, "checking "+input), nil
		}
		if paths.Same(input, output) {
			return Failure(KindValidation, "output path %s is also an input", output), nil
		}
	}
	if n := distinct(inputs); n < 2 {
		return Failure(KindValidation, "at least 2 distinct PDF files are required to merge, got %d", n), nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return FailureFrom(err, "creating output directory"), nil
	}
	// Appending onto a stale file would merge into it.
	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		return FailureFrom(err, "replacing "+output), nil
	}

	tc.logf("merging %d PDF files", len(inputs))
	complete := false
	defer func() {
		if !complete {
			removePartial(tc, output)
		}
	}()

	for i, input := range inputs {
		if ctx.Err() != nil {
			tc.logf("operation cancelled")
			return Result{}, cancelled(ctx)
		}
		tc.logf("merging file %d/%d: %s", i+1, len(inputs), filepath.Base(input))
		if err := m.appendSource(input, output); err != nil {
			return FailureFrom(err, "merging "+filepath.Base(input)), nil
		}
		tc.report(Determinate(util.Percent(int64(i+1), int64(len(inputs))), fmt.Sprintf("merged %d/%d files", i+1, len(inputs))))
	}
	if ctx.Err() != nil {
		tc.logf("operation cancelled")
		return Result{}, cancelled(ctx)
	}

	info, err := os.Stat(output)
	if err != nil {
		return FailureFrom(err, "checking "+output), nil
	}
	complete = true
	tc.logf("merge completed: %s (%s)", filepath.Base(output), util.FormatSize(info.Size()))
	return Success(output), nil
}

func (m *MergeTool) appendSource(input, output string) error {
	doc, err := m.codec.Open(input)
	if err != nil {
		return err
	}
	defer doc.Close()
	return m.codec.AppendPages(doc, output)
}

// distinct counts inputs that name different files. Repeating a file is allowed
// as long as two different files take part.
func distinct(inputs []string) int {
	var seen []string
	for _, input := range inputs {
		if !slices.ContainsFunc(seen, func(s string) bool { return paths.Same(s, input) }) {
			seen = append(seen, input)
		}
	}
	return len(seen)
}

func removePartial(tc Context, path string) {
	if err := os.Remove(path); err == nil {
		tc.logf("removed partial output %s", path)
	}
}
