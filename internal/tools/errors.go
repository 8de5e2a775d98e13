package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"

	"swissknife/internal/fetch"
	"swissknife/internal/pdf"
)

var (
	// ErrCancelled is returned by Run when the run was cancelled. It wraps the
	// context's cause, so context.Canceled and context.DeadlineExceeded match too.
	ErrCancelled = errors.New("operation cancelled")

	// ErrToolNotFound indicates the requested tool doesn't exist in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidTool is returned when registering a nil tool or one without an id.
	ErrInvalidTool = errors.New("invalid tool")

	errDigest = errors.New("cryptographic error")
)

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

// IsCancelled reports whether err is a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Classify maps an error chain onto an ErrorKind.
func Classify(err error) ErrorKind {
	var (
		pathErr   *fs.PathError
		statusErr *fetch.StatusError
		netErr    net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrPermission):
		return KindAccessDenied
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, pdf.ErrCodec), errors.Is(err, errDigest):
		return KindCodec
	case errors.As(err, &statusErr):
		if statusErr.NotFound() {
			return KindNotFound
		}
		return KindIO
	case errors.As(err, &pathErr), errors.As(err, &netErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrShortWrite):
		return KindIO
	default:
		return KindUnexpected
	}
}

// FailureFrom converts err into a Failure whose message names what was being done.
func FailureFrom(err error, doing string) Result {
	kind := Classify(err)
	switch kind {
	case KindAccessDenied:
		return Failure(kind, "access denied while %s: %v", doing, err)
	case KindNotFound:
		return Failure(kind, "not found while %s: %v", doing, err)
	case KindCodec:
		return Failure(kind, "document error while %s: %v", doing, err)
	case KindIO:
		return Failure(kind, "i/o error while %s: %v", doing, err)
	default:
		return Failure(KindUnexpected, "unexpected error while %s: %v", doing, err)
	}
}
