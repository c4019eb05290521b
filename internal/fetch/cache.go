package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Filename derives a stable cache file name from a URL: the SHA-256 of the
// decoded path and query, keeping the original extension.
func Filename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		sum := sha256.Sum256([]byte(rawURL))
		return hex.EncodeToString(sum[:])
	}

	unique := parsed.Path
	if q, qerr := url.QueryUnescape(parsed.RawQuery); qerr == nil && q != "" {
		unique += "?" + q
	}
	sum := sha256.Sum256([]byte(unique))
	return hex.EncodeToString(sum[:]) + path.Ext(parsed.Path)
}

// ResourceCache stores downloaded pages under a root directory, keyed by
// Filename(url). A cached file is returned as-is unless force is set.
type ResourceCache struct {
	root   string
	client *Client
}

// NewResourceCache creates a cache rooted at root, downloading misses with
// client.
func NewResourceCache(root string, client *Client) *ResourceCache {
	return &ResourceCache{root: root, client: client}
}

// Path returns where a URL's contents live (or would live) in the cache.
func (rc *ResourceCache) Path(rawURL string) string {
	return filepath.Join(rc.root, Filename(rawURL))
}

// Get returns the contents of rawURL, downloading and storing them on a
// cache miss or when force is set.
func (rc *ResourceCache) Get(ctx context.Context, rawURL string, force bool) (string, error) {
	full := rc.Path(rawURL)

	if !force {
		if raw, err := os.ReadFile(full); err == nil {
			return string(raw), nil
		}
	}

	contents, err := rc.client.Page(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(rc.root, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", rc.root, err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		return "", fmt.Errorf("store %s: %w", full, err)
	}
	return contents, nil
}
