package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp, URLPrefix: "http://localhost:8080/media"})
	require.NoError(t, err)

	ctx := context.Background()
	gif := []byte("GIF89a\x01\x00\x01\x00")

	obj, err := backend.Upload(ctx, bytes.NewReader(gif), storefront.UploadParams{Filename: "pixel.gif"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/"+obj.Identifier+".gif", obj.SecureURL)
	assert.Equal(t, obj.Identifier, storefront.ImageIdentifier(obj.SecureURL))

	_, err = os.Stat(filepath.Join(tmp, obj.Identifier+".gif"))
	require.NoError(t, err)

	rc, contentType, err := backend.Open(ctx, obj.Identifier)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, gif, got)
	assert.Equal(t, "image/gif", contentType)

	require.NoError(t, backend.Delete(ctx, obj.Identifier))
	_, err = os.Stat(filepath.Join(tmp, obj.Identifier+".gif"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, backend.Delete(ctx, obj.Identifier), ErrObjectNotFound)
}

func TestFSBackend_RejectsUnsafeIdentifiers(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "../etc/passwd", "*", "a?b"} {
		assert.ErrorIs(t, backend.Delete(ctx, id), ErrObjectNotFound, id)
	}
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory is required")
}
