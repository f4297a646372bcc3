package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/resolver"
)

// newStallingServer serves the link exchange for any /link/<name> token.
// /content/stalled sends headers and part of the body, then stops sending
// until the client gives up or release is closed.
func newStallingServer(t *testing.T, release <-chan struct{}) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/link/"):
			fmt.Fprint(w, srv.URL+"/content/"+strings.TrimPrefix(r.URL.Path, "/link/"))
		case r.URL.Path == "/content/stalled":
			w.Header().Set("Content-Length", "4096")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("partial"))
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-release:
			}
		default:
			fmt.Fprint(w, "photo bytes")
		}
	}))
	return srv
}

func TestPhotos_StalledDownloadFailsOnlyThatEntry(t *testing.T) {
	release := make(chan struct{})
	srv := newStallingServer(t, release)
	defer srv.Close()
	defer close(release)

	day := time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)
	stalled := photo(srv.URL+"/link/stalled", day)
	healthy := photo(srv.URL+"/link/healthy", day.Add(time.Minute))

	h := newHarness(nil)
	deps := h.deps()
	deps.Resolver = resolver.NewClient(resolver.Options{LinkTimeout: 5 * time.Second})
	deps.EntryTimeout = 200 * time.Millisecond
	failed := NewFailedSet()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := NewPhotos(deps).Run(context.Background(), []manifest.Entry{stalled, healthy}, failed)
		done <- outcome{res, err}
	}()

	var got outcome
	select {
	case got = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the entry deadline passed")
	}

	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if !failed.Contains(stalled) {
		t.Error("stalled entry should be in the failed set")
	}
	if failed.Contains(healthy) {
		t.Error("healthy entry should not be in the failed set")
	}
	if got.res.Written != 1 || got.res.Failed != 1 {
		t.Errorf("unexpected result: %+v", got.res)
	}
	if content := h.fs.files["/out/file-2"]; content != "photo bytes" {
		t.Errorf("healthy entry content = %q", content)
	}
}
