// Package storage keeps uploaded box and item images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("upload too large")
	// ErrForeignAddress is returned by Delete for addresses this store did
	// not issue.
	ErrForeignAddress = errors.New("address not managed by this store")
)

// BlobStore persists images and hands back an address clients can fetch.
type BlobStore interface {
	Upload(ctx context.Context, folder, suggestedName string, r io.Reader) (string, error)
	Delete(ctx context.Context, address string) error
}

// LocalStore writes blobs below Dir and addresses them under BaseURL, which
// the HTTP server maps back onto Dir.
type LocalStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
	now      func() time.Time
}

var _ BlobStore = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &LocalStore{
		Dir:      dir,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

// Upload stores r as <folder>/<unixnano>-<id>-<name>. The name is reduced
// to a safe file name; the folder to a single path segment.
func (s *LocalStore) Upload(ctx context.Context, folder, suggestedName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	folder = cleanSegment(folder)
	if folder == "" {
		folder = "misc"
	}
	name := cleanSegment(filepath.Base(suggestedName))
	if name == "" {
		name = "file"
	}
	name = fmt.Sprintf("%d-%s-%s", s.now().UnixNano(), uuid.NewString()[:8], name)

	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", folder, err)
	}
	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return s.BaseURL + "/" + path.Join(folder, name), nil
}

// Delete removes the blob behind address. A blob that is already gone is
// not an error.
func (s *LocalStore) Delete(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(address, s.BaseURL+"/")
	if !ok || rel == "" {
		return ErrForeignAddress
	}
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return ErrForeignAddress
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// cleanSegment lower-cases s and replaces anything outside [a-z0-9._-]
// with '-'. Leading dots are dropped so names cannot be hidden or relative.
func cleanSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
