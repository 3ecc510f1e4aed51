// Package extract talks to the PDF-to-timetable extraction service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/in-nis/classplan/internal/timetable"
)

var (
	// ErrDisabled is returned when no extractor URL is configured.
	ErrDisabled = errors.New("extraction service not configured")
	ErrFailed   = errors.New("extraction failed")
)

const maxResponseBody = 4 << 20

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Extract uploads the PDF as the multipart field "file" and decodes the
// returned day → hour → lessons tree. The tree is not validated here.
func (c *Client) Extract(ctx context.Context, filename string, pdf io.Reader) (timetable.Tree, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %s: %s", ErrFailed, resp.Status, bytes.TrimSpace(msg))
	}

	var tree timetable.Tree
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFailed, err)
	}
	return tree, nil
}
