package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, max int64) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "/media/", max)
	require.NoError(t, err)
	return s
}

func TestUploadAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 1024)

	addr, err := s.Upload(ctx, "boxes", "Heart Box.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "/media/boxes/"), addr)
	assert.True(t, strings.HasSuffix(addr, "-heart-box.png"), addr)

	full := filepath.Join(s.Dir, strings.TrimPrefix(addr, "/media/"))
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, addr))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	// Second delete is a no-op.
	assert.NoError(t, s.Delete(ctx, addr))
}

func TestUploadTooLarge(t *testing.T) {
	s := newStore(t, 4)
	_, err := s.Upload(context.Background(), "items", "a.jpg", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Dir, "items"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadSanitizesNames(t *testing.T) {
	s := newStore(t, 0)
	addr, err := s.Upload(context.Background(), "../etc", "../../passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "/media/-etc/"), addr)
	assert.True(t, strings.HasSuffix(addr, "-passwd"), addr)
}

func TestDeleteRejectsForeignAddresses(t *testing.T) {
	s := newStore(t, 0)
	ctx := context.Background()
	for _, addr := range []string{"", "https://cdn.example.com/a.png", "/media/", "/media/../secret"} {
		assert.ErrorIs(t, s.Delete(ctx, addr), ErrForeignAddress, addr)
	}
}

func TestCleanSegment(t *testing.T) {
	assert.Equal(t, "macaron-1.webp", cleanSegment(" Macaron 1.webp"))
	assert.Equal(t, "hidden", cleanSegment(".hidden"))
	assert.Equal(t, "", cleanSegment(".."))
}
