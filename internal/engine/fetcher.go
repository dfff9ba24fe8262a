package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-gedcheck/internal/config"
)

// SourceFetcher retrieves a remote GEDCOM file.
type SourceFetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// HTTPFetcher implements SourceFetcher over net/http.
type HTTPFetcher struct {
	Client *http.Client
	// MaxBytes rejects larger bodies instead of truncating the tree.
	MaxBytes int64
}

// NewHTTPFetcher creates a new instance of HTTPFetcher with configured timeouts.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		MaxBytes: config.MaxHTTPResponseSize,
	}
}

// Fetch downloads a GEDCOM file. Query parameters are stripped from logs
// since they may carry tokens. A body above MaxBytes fails with
// config.ErrSourceTooLarge.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	safeURL := u.Scheme + "://" + u.Host + u.Path
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, safeURL),
	)
	log.Debug(config.MsgSourceInit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error during fetch: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgSourceStatus,
			slog.Int(config.LogKeyStatus, resp.StatusCode),
		)
		return nil, fmt.Errorf("server returned unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = config.MaxHTTPResponseSize
	}
	if resp.ContentLength > limit {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %d bytes", config.ErrSourceTooLarge, resp.ContentLength)
	}

	log.Info(config.MsgSourceDownload,
		slog.Int64(config.LogKeyLength, resp.ContentLength),
	)

	return &cappedBody{body: resp.Body, limit: limit}, nil
}

// cappedBody fails the read once more than limit bytes arrived, which
// catches bodies sent without a Content-Length.
type cappedBody struct {
	body  io.ReadCloser
	limit int64
	read  int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	n, err := c.body.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		return n, errors.New(config.ErrSourceTooLarge)
	}
	return n, err
}

func (c *cappedBody) Close() error { return c.body.Close() }
