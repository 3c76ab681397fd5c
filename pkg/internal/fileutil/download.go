package fileutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hushhenry/ai-gateway/pkg/internal/media"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
)

// DefaultMaxDownloadSize is the default ceiling on a fetched image_url body:
// 20 MiB. Inbound images are small by construction; this guards against a
// misbehaving or hostile URL streaming an unbounded response into memory.
const DefaultMaxDownloadSize = 20 * 1024 * 1024

// DownloadOptions contains options for downloading a remote image.
type DownloadOptions struct {
	Timeout time.Duration
	Headers map[string]string

	// MaxSize limits the size of the download, in bytes. Default:
	// DefaultMaxDownloadSize.
	MaxSize int64
}

// DefaultDownloadOptions returns default download options.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Timeout: 20 * time.Second,
		MaxSize: DefaultMaxDownloadSize,
	}
}

// Download fetches url and returns its body plus a best-effort media type:
// the response's Content-Type header if present and specific, otherwise a
// type sniffed from the downloaded bytes' magic numbers. The body is read
// incrementally and rejected once it would exceed opts.MaxSize, so a
// misbehaving server cannot exhaust memory via an unbounded or mislabeled
// Content-Length.
func Download(ctx context.Context, url string, opts DownloadOptions) ([]byte, string, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxDownloadSize
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", providererrors.NewBadRequestError(fmt.Sprintf("invalid image URL %q", url), err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", providererrors.NewBadRequestError(fmt.Sprintf("fetching image URL %q", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", providererrors.NewBadRequestError(
			fmt.Sprintf("fetching image URL %q: upstream returned %s", url, resp.Status), nil)
	}
	if resp.ContentLength > opts.MaxSize {
		return nil, "", providererrors.NewBadRequestError(
			fmt.Sprintf("image URL %q exceeded %d byte limit (Content-Length: %d)", url, opts.MaxSize, resp.ContentLength), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxSize+1))
	if err != nil {
		return nil, "", providererrors.NewBadRequestError(fmt.Sprintf("reading image URL %q", url), err)
	}
	if int64(len(data)) > opts.MaxSize {
		return nil, "", providererrors.NewBadRequestError(
			fmt.Sprintf("image URL %q exceeded %d byte limit", url, opts.MaxSize), nil)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" || mimeType == "binary/octet-stream" {
		if sniffed := media.DetectImageMediaType(data); sniffed != "" {
			mimeType = sniffed
		}
	}
	return data, mimeType, nil
}
