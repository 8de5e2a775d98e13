package tools

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swissknife/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	abcDigest   = "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"
	emptyDigest = "E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855"
)

func TestHashStreamIsChunkSizeIndependent(t *testing.T) {
	data := bytes.Repeat([]byte("swissknife"), 10000)
	want, err := HashStream(context.Background(), bytes.NewReader(data), int64(len(data)), DefaultChunkSize, nil)
	require.NoError(t, err)

	for _, size := range []int{1, 7, 4096, len(data) + 1} {
		got, err := HashStream(context.Background(), bytes.NewReader(data), int64(len(data)), size, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk size %d", size)
	}

	got, err := HashStream(context.Background(), strings.NewReader("abc"), 3, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, abcDigest, got)
}

func TestHashStreamEmptyInput(t *testing.T) {
	calls := 0
	got, err := HashStream(context.Background(), bytes.NewReader(nil), 0, 16, func(int64, int64) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, emptyDigest, got)
	assert.Zero(t, calls)
}

func TestHashToolFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	var s sink
	res, err := NewHashTool(1, nil).Run(context.Background(), s.context([]string{path}, "", nil))
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, abcDigest, res.Output)

	pcts := s.percentages()
	require.Len(t, pcts, 3)
	assert.Equal(t, 100.0, pcts[len(pcts)-1])
	assert.Equal(t, "read 3 of 3 bytes", s.progress[len(s.progress)-1].Message)
	assert.True(t, s.logged("hash completed"))
}

func TestHashToolValidation(t *testing.T) {
	dir := t.TempDir()
	tool := NewHashTool(0, nil)
	cases := []struct {
		name   string
		inputs []string
		kind   ErrorKind
		msg    string
	}{
		{"missing", nil, KindValidation, "input not specified"},
		{"blank", []string{"  "}, KindValidation, "input not specified"},
		{"not found", []string{filepath.Join(dir, "nope.bin")}, KindNotFound, "file does not exist"},
		{"directory", []string{dir}, KindValidation, "directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s sink
			res, err := tool.Run(context.Background(), s.context(tc.inputs, "", nil))
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tc.kind, res.Kind)
			assert.Contains(t, res.Error, tc.msg)
		})
	}
}

// cancellingReader cancels its context after the first read.
type cancellingReader struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancellingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.cancel()
	return n, err
}

type readerOpener struct {
	body io.Reader
	size int64
}

func (o readerOpener) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	return io.NopCloser(o.body), o.size, nil
}

func TestHashToolCancellationMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	data := bytes.Repeat([]byte{1}, 1000)
	opener := readerOpener{body: &cancellingReader{r: bytes.NewReader(data), cancel: cancel}, size: int64(len(data))}

	var s sink
	res, err := NewHashTool(10, opener).Run(ctx, s.context([]string{"https://example.com/big.bin"}, "", nil))
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.OK)
	for _, p := range s.percentages() {
		assert.Less(t, p, 100.0)
	}
}

func TestHashToolUnknownLengthIsIndeterminate(t *testing.T) {
	opener := readerOpener{body: strings.NewReader("abc"), size: -1}
	var s sink
	res, err := NewHashTool(1, opener).Run(context.Background(), s.context([]string{"http://example.com/abc"}, "", nil))
	require.NoError(t, err)
	assert.Equal(t, abcDigest, res.Output)
	require.NotEmpty(t, s.progress)
	for _, p := range s.progress {
		assert.Nil(t, p.Percentage)
	}
	assert.Equal(t, "read 3 bytes", s.progress[len(s.progress)-1].Message)
}

func TestHashToolRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/abc.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("abc"))
	}))
	defer srv.Close()

	tool := NewHashTool(0, fetch.NewClient(0))

	var s sink
	res, err := tool.Run(context.Background(), s.context([]string{srv.URL + "/abc.txt"}, "", nil))
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, abcDigest, res.Output)

	res, err = tool.Run(context.Background(), s.context([]string{srv.URL + "/missing"}, "", nil))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, KindNotFound, res.Kind)
}
