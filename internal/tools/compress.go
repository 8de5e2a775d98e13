package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"swissknife/internal/paths"
	"swissknife/internal/pdf"
	"swissknife/internal/util"
)

const CompressToolID = "pdf.compress"

// CompressTool re-encodes a PDF to reduce its size.
type CompressTool struct {
	codec pdf.Codec
}

// NewCompressTool constructs a compress tool over codec.
func NewCompressTool(codec pdf.Codec) *CompressTool {
	return &CompressTool{codec: codec}
}

func (c *CompressTool) ID() string   { return CompressToolID }
func (c *CompressTool) Name() string { return "PDF Compress" }

func (c *CompressTool) Description() string {
	return "Compress a PDF file to reduce its size (compressionLevel: Low, Medium, High)."
}

func (c *CompressTool) Run(ctx context.Context, tc Context) (Result, error) {
	input := tc.Input()
	if input == "" {
		return Failure(KindValidation, "PDF file not specified"), nil
	}
	inputInfo, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Failure(KindNotFound, "PDF file does not exist: %s", input), nil
		}
		return FailureFrom(err, "checking "+input), nil
	}
	output := tc.OutputPath
	if output == "" {
		return Failure(KindValidation, "output path not specified"), nil
	}
	if paths.Same(input, output) {
		return Failure(KindValidation, "output path %s is the input file", output), nil
	}
	level := pdf.ParseLevel(tc.Param("compressionLevel", pdf.Medium.String()))

	originalSize := inputInfo.Size()
	tc.logf("opening PDF: %s", filepath.Base(input))
	tc.logf("original size: %s", util.FormatSize(originalSize))
	tc.logf("compression level: %s", level)

	if ctx.Err() != nil {
		return Result{}, cancelled(ctx)
	}
	doc, err := c.codec.Open(input)
	if err != nil {
		return FailureFrom(err, "opening "+filepath.Base(input)), nil
	}
	defer doc.Close()

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return FailureFrom(err, "creating output directory"), nil
	}

	total := doc.PageCount()
	tc.logf("total pages: %d", total)
	for page := 1; page <= total; page++ {
		if ctx.Err() != nil {
			tc.logf("operation cancelled")
			return Result{}, cancelled(ctx)
		}
		tc.report(Determinate(util.Percent(int64(page), int64(total)), fmt.Sprintf("compressing page %d/%d", page, total)))
	}

	tc.logf("finalizing compressed document")
	err = c.codec.Write(doc, output, pdf.WriteOptions{Level: level.Value(), FullCompression: true})
	if ctx.Err() != nil {
		removePartial(tc, output)
		tc.logf("operation cancelled")
		return Result{}, cancelled(ctx)
	}
	if err != nil {
		removePartial(tc, output)
		return FailureFrom(err, "compressing "+filepath.Base(input)), nil
	}

	outputInfo, err := os.Stat(output)
	if err != nil {
		return FailureFrom(err, "checking "+output), nil
	}
	compressedSize := outputInfo.Size()
	tc.logf("compressed size: %s", util.FormatSize(compressedSize))
	tc.logf("reduction: %.1f%% (%s saved)", util.Reduction(originalSize, compressedSize), util.FormatSize(originalSize-compressedSize))
	if compressedSize >= originalSize {
		tc.logf("note: compressed file is not smaller than the original; the PDF is already optimized")
	}
	return Success(output), nil
}
