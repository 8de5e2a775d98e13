package pdf

import (
	"errors"
	"fmt"
)

// ErrCodec matches every error raised by the document codec, as opposed to plain
// filesystem errors.
var ErrCodec = errors.New("pdf codec error")

// Error records a failed codec operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pdf %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdf %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrCodec.
func (e *Error) Is(target error) bool { return target == ErrCodec }

// Document is a handle on an opened source document. The file on disk is never
// modified. Write consumes the handle; only Close may be called on it afterwards.
type Document interface {
	Path() string
	PageCount() int
	Close() error
}

// WriteOptions controls how a document is re-encoded.
type WriteOptions struct {
	// Level is the 0-9 stream compression parameter.
	Level int
	// FullCompression packs objects and the cross-reference table into compressed streams.
	FullCompression bool
}

// Codec is the document capability the tools orchestrate.
type Codec interface {
	// Open opens path for reading and validates it as a document.
	Open(path string) (Document, error)
	// ExtractPages writes a standalone document holding exactly the pages of r, in order.
	ExtractPages(src Document, r PageRange, outPath string) error
	// AppendPages appends all pages of src to outPath, creating it when absent.
	AppendPages(src Document, outPath string) error
	// Write re-encodes src into outPath. It rewrites the in-memory document, so src
	// must not be read again once Write has been called.
	Write(src Document, outPath string, opts WriteOptions) error
}
