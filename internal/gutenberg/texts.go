// Package gutenberg caches Project Gutenberg book texts and metadata
// locally: raw texts as flat files, metadata in a SQLite index.
package gutenberg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// URLPatterns are the known layouts for raw book text, tried in order.
// Gutenberg hosts the same book under several paths depending on its age
// and encoding.
var URLPatterns = []string{
	"https://www.gutenberg.org/cache/epub/%d/pg%d.txt",
	"https://www.gutenberg.org/files/%d/%d-0.txt",
	"https://www.gutenberg.org/files/%d/%d-8.txt",
	"https://www.gutenberg.org/files/%d/%d.txt",
	"https://www.gutenberg.org/files/%d/pg%d.txt",
	"https://www.gutenberg.org/cache/epub/%d/pg%d.txt.utf8",
}

// patternPause spaces out attempts against consecutive URL patterns.
const patternPause = 100 * time.Millisecond

// TextStoreOption configures a TextStore.
type TextStoreOption func(*TextStore)

// WithTextHTTPClient sets the HTTP client used for downloads.
func WithTextHTTPClient(c *http.Client) TextStoreOption {
	return func(s *TextStore) { s.httpClient = c }
}

// WithTextUserAgent sets the User-Agent header for downloads.
func WithTextUserAgent(ua string) TextStoreOption {
	return func(s *TextStore) { s.userAgent = ua }
}

// WithURLPatterns overrides the tried URL layouts (tests point these at a
// local server).
func WithURLPatterns(patterns []string) TextStoreOption {
	return func(s *TextStore) { s.patterns = patterns }
}

// TextStore downloads raw book texts by Gutenberg book ID and caches them
// under <root>/texts/<id>.txt.
type TextStore struct {
	root       string
	httpClient *http.Client
	userAgent  string
	patterns   []string
}

// NewTextStore creates a text store rooted at root.
func NewTextStore(root string, opts ...TextStoreOption) *TextStore {
	s := &TextStore{
		root:       root,
		httpClient: http.DefaultClient,
		patterns:   URLPatterns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TextStore) textPath(bookID int) string {
	return filepath.Join(s.root, "texts", strconv.Itoa(bookID)+".txt")
}

// Text returns the raw text of a book, downloading and caching it on a
// miss.
func (s *TextStore) Text(ctx context.Context, bookID int) ([]byte, error) {
	path := s.textPath(bookID)
	if raw, err := os.ReadFile(path); err == nil {
		return raw, nil
	}

	raw, err := s.download(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create text cache dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("cache book %d: %w", bookID, err)
	}
	return raw, nil
}

// download tries each URL pattern in order, pausing briefly between
// failures, and returns the first successful body.
func (s *TextStore) download(ctx context.Context, bookID int) ([]byte, error) {
	var lastErr error
	for _, pattern := range s.patterns {
		url := fmt.Sprintf(pattern, bookID, bookID)
		raw, err := s.fetch(ctx, url)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(patternPause):
		}
	}
	return nil, fmt.Errorf("could not download book %d: %w", bookID, lastErr)
}

func (s *TextStore) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
