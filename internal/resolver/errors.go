package resolver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fpang/memories-download/internal/manifest"
)

// FetchFailure reports that an entry's content could not be retrieved.
type FetchFailure struct {
	Entry manifest.Entry
	Cause error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Entry, e.Cause)
}

func (e *FetchFailure) Unwrap() error {
	return e.Cause
}

// StatusError is a non-2xx response from either leg.
type StatusError struct {
	Leg        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s request returned HTTP %d", e.Leg, e.StatusCode)
	}
	return fmt.Sprintf("%s request returned HTTP %d: %s", e.Leg, e.StatusCode, e.Body)
}

func newStatusError(leg string, resp *http.Response) *StatusError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Leg:        leg,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
}
