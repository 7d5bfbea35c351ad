package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Downloader fetches library sources over HTTP, resuming partial files.
type Downloader struct {
	client *http.Client
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithTimeout sets the timeout for HTTP operations.
func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.client = &http.Client{Timeout: timeout}
	}
}

// NewDownloader creates a new Downloader with sensible defaults.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// open requests url, asking for the bytes after offset when offset > 0. It
// reports whether the server honored the range and the full content size,
// or -1 when unknown.
func (d *Downloader) open(ctx context.Context, url string, offset int64) (io.ReadCloser, bool, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, 0, fmt.Errorf("creating request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, false, 0, fmt.Errorf("downloading: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, false, resp.ContentLength, nil
	case http.StatusPartialContent:
		total := int64(-1)
		var start, end int64
		if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
			total = offset + resp.ContentLength
		}
		return resp.Body, true, total, nil
	case http.StatusRequestedRangeNotSatisfiable:
		// The partial file is already complete.
		resp.Body.Close()
		return io.NopCloser(http.NoBody), true, offset, nil
	default:
		resp.Body.Close()
		return nil, false, 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

// DownloadToFile downloads url to destPath. An existing partial file is
// resumed when the server supports ranges and restarted otherwise. The
// progress callback, if any, receives download-phase updates tagged with
// label.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath, label string, progress ProgressFunc) error {
	var existing int64
	if info, err := os.Stat(destPath); err == nil {
		existing = info.Size()
	}

	body, resumed, total, err := d.open(ctx, url, existing)
	if err != nil {
		return err
	}
	defer body.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if resumed {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	} else {
		existing = 0
	}
	file, err := os.OpenFile(destPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var written atomic.Int64
	written.Store(existing)
	dst := newProgressWriter(file, &written)

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing file: %w", werr)
			}
			if progress != nil {
				progress(Progress{
					Phase:           PhaseDownload,
					Library:         label,
					BytesDownloaded: written.Load(),
					BytesTotal:      total,
				})
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}
	return file.Close()
}

// ContentLength gets the content length of a URL without downloading.
func (d *Downloader) ContentLength(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	lengthStr := resp.Header.Get("Content-Length")
	if lengthStr == "" {
		return 0, nil
	}
	return strconv.ParseInt(lengthStr, 10, 64)
}
