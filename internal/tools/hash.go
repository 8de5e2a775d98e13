package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"swissknife/internal/fetch"
	"swissknife/internal/util"

	"github.com/dustin/go-humanize"
)

const (
	HashToolID = "hash.sha256"

	// DefaultChunkSize bounds memory per read while keeping progress responsive.
	DefaultChunkSize = 81920
)

// Opener opens remote inputs for streaming. size is -1 when unknown.
type Opener interface {
	Open(ctx context.Context, url string) (body io.ReadCloser, size int64, err error)
}

// HashTool computes the SHA-256 digest of a file without loading it into memory.
type HashTool struct {
	chunkSize int
	remote    Opener
}

// NewHashTool constructs a hash tool. chunkSize <= 0 selects DefaultChunkSize;
// remote may be nil, in which case URLs are treated as local paths.
func NewHashTool(chunkSize int, remote Opener) *HashTool {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &HashTool{chunkSize: chunkSize, remote: remote}
}

func (h *HashTool) ID() string   { return HashToolID }
func (h *HashTool) Name() string { return "Hash File" }

func (h *HashTool) Description() string {
	return "Compute the SHA-256 digest of a file by streaming it in chunks."
}

func (h *HashTool) Run(ctx context.Context, tc Context) (Result, error) {
	input := tc.Input()
	if input == "" {
		return Failure(KindValidation, "input not specified"), nil
	}

	var (
		src   io.ReadCloser
		total int64
	)
	if h.remote != nil && fetch.IsURL(input) {
		tc.logf("fetching %s", input)
		body, size, err := h.remote.Open(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, cancelled(ctx)
			}
			return FailureFrom(err, "fetching "+input), nil
		}
		src, total = body, size
	} else {
		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Failure(KindNotFound, "file does not exist: %s", input), nil
			}
			return FailureFrom(err, "reading "+input), nil
		}
		if info.IsDir() {
			return Failure(KindValidation, "input is a directory: %s", input), nil
		}
		tc.logf("opening file: %s", input)
		file, err := os.Open(input)
		if err != nil {
			return FailureFrom(err, "opening "+input), nil
		}
		src, total = file, info.Size()
	}
	defer src.Close()

	digest, err := HashStream(ctx, src, total, h.chunkSize, func(processed, total int64) {
		if total > 0 {
			tc.report(Determinate(util.Percent(processed, total),
				fmt.Sprintf("read %s of %s bytes", humanize.Comma(processed), humanize.Comma(total))))
			return
		}
		tc.report(Indeterminate(fmt.Sprintf("read %s bytes", humanize.Comma(processed))))
	})
	if err != nil {
		if IsCancelled(err) {
			tc.logf("operation cancelled")
			return Result{}, err
		}
		return FailureFrom(err, "hashing "+input), nil
	}

	tc.logf("hash completed")
	return Success(digest), nil
}

// HashStream feeds r into a SHA-256 accumulator chunkSize bytes at a time and
// returns the uppercase hex digest. onChunk is called after every chunk; total <= 0
// means the length is unknown. Cancellation is checked before every read.
func HashStream(ctx context.Context, r io.Reader, total int64, chunkSize int, onChunk func(processed, total int64)) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	digest := sha256.New()
	buf := make([]byte, chunkSize)
	var processed int64
	for {
		if ctx.Err() != nil {
			return "", cancelled(ctx)
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := digest.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("%w: %v", errDigest, werr)
			}
			processed += int64(n)
			if onChunk != nil {
				onChunk(processed, total)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", cancelled(ctx)
			}
			return "", err
		}
	}
	return strings.ToUpper(hex.EncodeToString(digest.Sum(nil))), nil
}
