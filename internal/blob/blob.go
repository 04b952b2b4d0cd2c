// Package blob models references to media payloads that may live either
// in memory or behind a presigned URL, plus the presigned-PUT upload
// path with optional progress reporting.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ProgressFunc receives the number of bytes transferred so far and the
// total expected, after every chunk.
type ProgressFunc func(sent, total int64)

// Ref is a handle to binary content. A ref backed by raw bytes returns
// them directly; a ref backed by a URL fetches on demand.
type Ref interface {
	// Bytes materializes the content.
	Bytes(ctx context.Context) ([]byte, error)
	// URL returns the direct URL, or "" when the ref is byte-backed.
	URL() string
}

type bytesRef struct {
	data []byte
}

func (r *bytesRef) Bytes(_ context.Context) ([]byte, error) { return r.data, nil }
func (r *bytesRef) URL() string                             { return "" }

// FromBytes wraps in-memory content as a Ref.
func FromBytes(data []byte) Ref {
	return &bytesRef{data: data}
}

type urlRef struct {
	url    string
	client *http.Client
}

func (r *urlRef) URL() string { return r.url }

func (r *urlRef) Bytes(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch blob: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FromURL wraps a direct (usually presigned GET) URL as a Ref.
func FromURL(url string) Ref {
	return &urlRef{url: url, client: http.DefaultClient}
}

type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.progress(p.sent, p.total)
	}
	return n, err
}

// Uploader pushes blob content to presigned PUT URLs.
type Uploader struct {
	client   *http.Client
	progress ProgressFunc
}

// NewUploader returns an uploader using the given HTTP client, or
// http.DefaultClient when nil.
func NewUploader(client *http.Client) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{client: client}
}

// WithProgress returns a copy of the uploader that reports transfer
// progress through fn.
func (u *Uploader) WithProgress(fn ProgressFunc) *Uploader {
	return &Uploader{client: u.client, progress: fn}
}

// Upload PUTs the ref's content to a presigned URL.
func (u *Uploader) Upload(ctx context.Context, url, contentType string, ref Ref) error {
	if ref == nil {
		return errors.New("nil blob ref")
	}
	data, err := ref.Bytes(ctx)
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}

	var body io.Reader = bytes.NewReader(data)
	if u.progress != nil {
		body = &progressReader{r: body, total: int64(len(data)), progress: u.progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload blob: unexpected status %d", resp.StatusCode)
	}
	return nil
}
