package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedImage(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"shot.Png", true},
		{"anim.gif", false},
		{"noext", false},
		{"archive.png.zip", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedImage(tt.filename))
		})
	}
}

func TestNameFromPublicPath(t *testing.T) {
	name, err := NameFromPublicPath("/images/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "abc.png", name)

	name, err = NameFromPublicPath("tech_image.jpg")
	require.NoError(t, err)
	assert.Equal(t, "tech_image.jpg", name)

	name, err = NameFromPublicPath("/images/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)

	_, err = NameFromPublicPath("")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = NameFromPublicPath("/images/..")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "wwwroot", "images")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	t.Run("save creates directory and file", func(t *testing.T) {
		publicPath, err := store.Save(ctx, strings.NewReader("png-bytes"), "Holiday.PNG")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(publicPath, "/images/"))
		assert.True(t, strings.HasSuffix(publicPath, ".png"))

		name := strings.TrimPrefix(publicPath, "/images/")
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("names are unique", func(t *testing.T) {
		a, err := store.Save(ctx, strings.NewReader("a"), "a.jpg")
		require.NoError(t, err)
		b, err := store.Save(ctx, strings.NewReader("b"), "a.jpg")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("open returns content", func(t *testing.T) {
		publicPath, err := store.Save(ctx, bytes.NewReader([]byte{1, 2, 3}), "x.jpeg")
		require.NoError(t, err)
		name, _ := NameFromPublicPath(publicPath)

		rc, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, []byte{1, 2, 3}, data)

		_, err = store.Open(ctx, "missing.png")
		assert.ErrorIs(t, err, ErrImageNotFound)
		_, err = store.Open(ctx, "../secret")
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("delete removes file and is idempotent", func(t *testing.T) {
		publicPath, err := store.Save(ctx, strings.NewReader("gone"), "g.jpg")
		require.NoError(t, err)
		name, _ := NameFromPublicPath(publicPath)

		require.NoError(t, store.Delete(ctx, publicPath))
		_, err = os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, store.Delete(ctx, publicPath))
		assert.NoError(t, store.Delete(ctx, "/images/never-existed.png"))
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLocalStoreSaveFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	publicPath, err := store.Save(ctx, failingReader{}, "broken.png")
	assert.Error(t, err)
	assert.Empty(t, publicPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStoreUnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	store, err := NewLocalStore(filepath.Join(blocker, "images"))
	require.NoError(t, err)

	publicPath, err := store.Save(context.Background(), strings.NewReader("x"), "a.png")
	assert.Error(t, err)
	assert.Empty(t, publicPath)
}

func TestNewLocalStoreRequiresDir(t *testing.T) {
	_, err := NewLocalStore("")
	assert.Error(t, err)
}
