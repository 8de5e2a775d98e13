package tools

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"swissknife/internal/pdf"

	"github.com/stretchr/testify/require"
)

// fakeCodec treats files of the form "FAKEPDF <pages>" as documents.
type fakeCodec struct {
	mu        sync.Mutex
	extracted []pdf.PageRange
	appended  []string
	writes    []pdf.WriteOptions

	// writeSize is the size of files produced by Write; 0 copies the source size.
	writeSize int
	failOn    string
	onAppend  func(n int)
}

type fakeDoc struct {
	path  string
	pages int
}

func (d fakeDoc) Path() string   { return d.path }
func (d fakeDoc) PageCount() int { return d.pages }
func (d fakeDoc) Close() error   { return nil }

func (c *fakeCodec) Open(path string) (pdf.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 || fields[0] != "FAKEPDF" {
		return nil, &pdf.Error{Op: "open", Path: path, Err: errors.New("not a PDF")}
	}
	pages, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &pdf.Error{Op: "open", Path: path, Err: err}
	}
	return fakeDoc{path: path, pages: pages}, nil
}

func (c *fakeCodec) ExtractPages(src pdf.Document, r pdf.PageRange, outPath string) error {
	if c.failOn == "extract" {
		return &pdf.Error{Op: "trim", Path: src.Path(), Err: errors.New("broken page tree")}
	}
	c.mu.Lock()
	c.extracted = append(c.extracted, r)
	c.mu.Unlock()
	return os.WriteFile(outPath, []byte(fmt.Sprintf("FAKEPDF %d\n", r.Len())), 0o644)
}

func (c *fakeCodec) AppendPages(src pdf.Document, outPath string) error {
	c.mu.Lock()
	c.appended = append(c.appended, filepath.Base(src.Path()))
	n := len(c.appended)
	c.mu.Unlock()
	if c.failOn == "append" && n == 2 {
		return &pdf.Error{Op: "merge", Path: src.Path(), Err: errors.New("corrupt xref")}
	}
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\n", src.Path()); err != nil {
		return err
	}
	if c.onAppend != nil {
		c.onAppend(n)
	}
	return nil
}

func (c *fakeCodec) Write(src pdf.Document, outPath string, opts pdf.WriteOptions) error {
	c.mu.Lock()
	c.writes = append(c.writes, opts)
	c.mu.Unlock()
	size := c.writeSize
	if size == 0 {
		info, err := os.Stat(src.Path())
		if err != nil {
			return err
		}
		size = int(info.Size())
	}
	if err := os.WriteFile(outPath, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		return err
	}
	if c.failOn == "write" {
		return &pdf.Error{Op: "write", Path: outPath, Err: errors.New("disk full")}
	}
	return nil
}

// writeFakePDF creates a fake document of n pages padded to at least size bytes.
func writeFakePDF(t *testing.T, path string, pages, size int) string {
	t.Helper()
	body := fmt.Sprintf("FAKEPDF %d\n", pages)
	if pad := size - len(body); pad > 0 {
		body += strings.Repeat(" ", pad)
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// sink records what a tool reports through its Context.
type sink struct {
	mu       sync.Mutex
	logs     []string
	progress []Progress
}

func (s *sink) context(inputs []string, output string, params map[string]string) Context {
	return Context{
		InputPaths: inputs,
		OutputPath: output,
		Parameters: params,
		Logger: func(line string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.logs = append(s.logs, line)
		},
		Progress: func(p Progress) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.progress = append(s.progress, p)
		},
	}
}

func (s *sink) percentages() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []float64
	for _, p := range s.progress {
		if p.Percentage != nil {
			out = append(out, *p.Percentage)
		}
	}
	return out
}

func (s *sink) logged(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.logs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
