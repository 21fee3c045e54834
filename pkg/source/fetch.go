package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sipeed/picoclaw-files/pkg/logger"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// Download defaults. 50 MB is the Bot API limit for multipart uploads.
var (
	DefaultMaxDownloadBytes int64 = 50 * 1024 * 1024
	DefaultFetchTimeout           = 30 * time.Second
	DefaultUserAgent              = "picoclaw-files/1.0"
)

var (
	ErrTooLarge = errors.New("download exceeds size limit")
	ErrStatus   = errors.New("unexpected status")
	ErrScheme   = errors.New("unsupported URL scheme")
)

// FetcherOptions configures a Fetcher. Zero values pick the defaults.
type FetcherOptions struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Headers   map[string]string
}

// Fetcher downloads remote content into upload files.
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxDownloadBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeaders(opts.Headers)
	return &Fetcher{client: client, maxBytes: opts.MaxBytes}
}

// URL downloads rawURL. The file name defaults to the last path segment.
func (f *Fetcher) URL(ctx context.Context, rawURL string, filename string) (*upload.File, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch %s: %w: %d", rawURL, ErrStatus, resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w: %d bytes", rawURL, ErrTooLarge, f.maxBytes)
	}

	if filename == "" {
		filename = urlFileName(u)
	}
	logger.DebugCF("source", "Downloaded file", map[string]interface{}{
		"url":   rawURL,
		"bytes": len(data),
		"name":  filename,
	})
	return newFile(filename, data), nil
}

// AsyncURL downloads in the background.
func (f *Fetcher) AsyncURL(ctx context.Context, rawURL string, filename string) *upload.Future {
	return upload.GoFile(ctx, func(ctx context.Context) (*upload.File, error) {
		return f.URL(ctx, rawURL, filename)
	})
}

func urlFileName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return DefaultURLName
	}
	return base
}
