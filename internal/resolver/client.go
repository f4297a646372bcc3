// Package resolver turns a manifest entry into downloadable bytes.
//
// Retrieval is a two-step exchange:
//  1. POST to the entry's download link; the response body is a short-lived
//     content URL, not the content itself.
//  2. GET the content URL and stream the body.
//
// Either leg may fail (network, timeout, non-2xx). Failures are reported as
// *FetchFailure and are never retried here; callers decide what to record.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/rs/zerolog/log"
)

const (
	// defaultLinkTimeout bounds the link-exchange request.
	defaultLinkTimeout = 30 * time.Second

	// defaultHeaderTimeout bounds the wait for response headers on the content
	// leg. The body itself can take as long as it takes.
	defaultHeaderTimeout = 60 * time.Second

	// maxURLBytes caps how much of the link-exchange body is read.
	maxURLBytes = 16 * 1024
)

// Legs is the network dependency of the resolver: the link exchange and the
// content fetch. *Client implements it over HTTP.
type Legs interface {
	RequestDownloadURL(ctx context.Context, token string) (string, error)
	FetchContent(ctx context.Context, url string) (*Content, error)
}

// Content is resolved media: the URL it came from and its body stream.
// The caller must close Body.
type Content struct {
	URL  string
	Body io.ReadCloser
	Size int64
}

// Client performs the link exchange and content fetch over HTTP.
type Client struct {
	linkClient    *http.Client
	contentClient *http.Client
	linkMethod    string
}

// Options tunes a Client. Zero values select defaults.
type Options struct {
	LinkTimeout time.Duration
	LinkMethod  string
}

// NewClient creates a resolver client.
func NewClient(opts Options) *Client {
	linkTimeout := opts.LinkTimeout
	if linkTimeout <= 0 {
		linkTimeout = defaultLinkTimeout
	}
	method := strings.ToUpper(opts.LinkMethod)
	if method == "" {
		method = http.MethodPost
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = defaultHeaderTimeout

	return &Client{
		linkClient: &http.Client{
			Timeout: linkTimeout,
		},
		contentClient: &http.Client{
			Transport: transport,
		},
		linkMethod: method,
	}
}

// RequestDownloadURL exchanges a download token for the content URL.
func (c *Client) RequestDownloadURL(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, c.linkMethod, token, nil)
	if err != nil {
		return "", fmt.Errorf("build link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.linkClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("link request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newStatusError("link", resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxURLBytes))
	if err != nil {
		return "", fmt.Errorf("read link response: %w", err)
	}

	url := strings.TrimSpace(string(body))
	if url == "" {
		return "", errors.New("link response was empty")
	}
	return url, nil
}

// FetchContent opens the content stream at url.
func (c *Client) FetchContent(ctx context.Context, url string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}

	resp, err := c.contentClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newStatusError("content", resp)
	}

	return &Content{
		URL:  url,
		Body: resp.Body,
		Size: resp.ContentLength,
	}, nil
}

// Resolve runs both legs for an entry. Any failure is returned as *FetchFailure.
func Resolve(ctx context.Context, legs Legs, entry manifest.Entry) (*Content, error) {
	url, err := RequestURL(ctx, legs, entry)
	if err != nil {
		return nil, err
	}
	return Fetch(ctx, legs, entry, url)
}

// RequestURL runs the link-exchange leg for an entry.
func RequestURL(ctx context.Context, legs Legs, entry manifest.Entry) (string, error) {
	url, err := legs.RequestDownloadURL(ctx, entry.DownloadToken)
	if err != nil {
		log.Debug().Err(err).Time("taken", entry.Taken).Msg("Link exchange failed")
		return "", &FetchFailure{Entry: entry, Cause: err}
	}
	return url, nil
}

// Fetch runs the content leg for an entry whose URL is already known.
func Fetch(ctx context.Context, legs Legs, entry manifest.Entry, url string) (*Content, error) {
	content, err := legs.FetchContent(ctx, url)
	if err != nil {
		log.Debug().Err(err).Time("taken", entry.Taken).Msg("Content fetch failed")
		return nil, &FetchFailure{Entry: entry, Cause: err}
	}
	return content, nil
}
