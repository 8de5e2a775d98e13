package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"swissknife/internal/util"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", util.RedactURL(e.URL), e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the server answered 404 or 410.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Client streams remote inputs with retries on connection errors and 5xx responses.
type Client struct {
	client *retryablehttp.Client
}

// NewClient constructs a client retrying up to retries times.
func NewClient(retries int) *Client {
	client := retryablehttp.NewClient()
	if retries < 0 {
		retries = 0
	}
	client.RetryMax = retries
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{client: client}
}

// Open issues a GET and returns the response body and its length (-1 when unknown).
// The caller closes the body; cancelling ctx aborts the transfer.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.client.Do(request)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, 0, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, resp.ContentLength, nil
}
