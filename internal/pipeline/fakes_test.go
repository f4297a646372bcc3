package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/resolver"
)

// fakeLegs serves the link exchange from maps. A token missing from urls
// fails the first leg; a url listed in badContent fails the second.
type fakeLegs struct {
	mu         sync.Mutex
	urls       map[string]string
	badContent map[string]bool
	fetched    []string
}

func (f *fakeLegs) RequestDownloadURL(ctx context.Context, token string) (string, error) {
	url, ok := f.urls[token]
	if !ok {
		return "", errors.New("link exchange refused")
	}
	return url, nil
}

func (f *fakeLegs) FetchContent(ctx context.Context, url string) (*resolver.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.badContent[url] {
		return nil, errors.New("content unavailable")
	}
	f.fetched = append(f.fetched, url)
	body := "bytes:" + url
	return &resolver.Content{URL: url, Body: io.NopCloser(strings.NewReader(body)), Size: int64(len(body))}, nil
}

// fakeNamer issues sequential unique names.
type fakeNamer struct {
	mu    sync.Mutex
	n     int
	fail  bool
	calls []bool
}

func (f *fakeNamer) NameFor(entry manifest.Entry, concatenated bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, concatenated)
	if f.fail {
		return "", errors.New("no output directory")
	}
	f.n++
	if concatenated {
		return fmt.Sprintf("/out/combined-%d.mp4", f.n), nil
	}
	return fmt.Sprintf("/out/file-%d", f.n), nil
}

// fakeFS keeps writes in memory and records removals.
type fakeFS struct {
	mu        sync.Mutex
	files     map[string]string
	written   []string
	removed   []string
	failWrite map[string]bool
	failRm    bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: make(map[string]string), failWrite: make(map[string]bool)}
}

func (f *fakeFS) WriteStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite[path] {
		return errors.New("disk full")
	}
	f.files[path] = string(data)
	f.written = append(f.written, path)
	return nil
}

func (f *fakeFS) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	if f.failRm {
		return errors.New("permission denied")
	}
	delete(f.files, path)
	return nil
}

func (f *fakeFS) removedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type stampCall struct {
	path  string
	taken time.Time
	geo   *manifest.Geo
}

type fakeStamper struct {
	mu    sync.Mutex
	calls []stampCall
	err   error
}

func (f *fakeStamper) Stamp(ctx context.Context, path string, taken time.Time, geo *manifest.Geo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stampCall{path: path, taken: taken, geo: geo})
	return f.err
}

func (f *fakeStamper) callsFor(path string) []stampCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []stampCall
	for _, c := range f.calls {
		if c.path == path {
			out = append(out, c)
		}
	}
	return out
}

type concatCall struct {
	clips  []string
	output string
}

type fakeConcat struct {
	mu    sync.Mutex
	calls []concatCall
	err   error
	block chan struct{}
}

func (f *fakeConcat) Concatenate(ctx context.Context, clips []string, output string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, concatCall{clips: append([]string(nil), clips...), output: output})
	return f.err
}

func (f *fakeConcat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recorder is a synchronous observer safe for use from the stitcher goroutine.
type recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *recorder) Emit(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

func (r *recorder) byKind(kind NotificationKind) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.list {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

var base = time.Date(2021, 6, 4, 18, 0, 0, 0, time.UTC)

func video(token string, offset time.Duration) manifest.Entry {
	return manifest.Entry{MediaType: manifest.Video, Taken: base.Add(offset), DownloadToken: token}
}

func photo(token string, taken time.Time) manifest.Entry {
	return manifest.Entry{MediaType: manifest.Photo, Taken: taken, DownloadToken: token}
}

// legsFor maps every entry token to a unique URL.
func legsFor(entries ...manifest.Entry) *fakeLegs {
	legs := &fakeLegs{urls: make(map[string]string), badContent: make(map[string]bool)}
	for _, e := range entries {
		legs.urls[e.DownloadToken] = "https://cdn.example.com/" + e.DownloadToken
	}
	return legs
}

type harness struct {
	legs    *fakeLegs
	namer   *fakeNamer
	fs      *fakeFS
	stamper *fakeStamper
	concat  *fakeConcat
	obs     *recorder
}

func newHarness(legs *fakeLegs) *harness {
	return &harness{
		legs:    legs,
		namer:   &fakeNamer{},
		fs:      newFakeFS(),
		stamper: &fakeStamper{},
		concat:  &fakeConcat{},
		obs:     &recorder{},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Resolver: h.legs,
		Namer:    h.namer,
		Files:    h.fs,
		Stamper:  h.stamper,
		Observer: h.obs,
		RunID:    "run-test",
	}
}
