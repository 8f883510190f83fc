package drivers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFSDriver_SaveAndGet(t *testing.T) {
	t.Parallel()

	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	key := "0123456789abcdef"

	require.NoError(t, driver.Save(ctx, key, strings.NewReader("png bytes"), "image/png"))

	reader, contentType, err := driver.Get(ctx, key)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, "image/png", contentType)
}

func TestLocalFSDriver_HashedLayout(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	driver, err := NewLocalFSDriver(baseDir, "")
	require.NoError(t, err)

	key := "abcdef123456"
	require.NoError(t, driver.Save(context.Background(), key, strings.NewReader("x"), "text/plain"))

	// Keys fan out into two directory levels.
	_, err = os.Stat(filepath.Join(baseDir, "ab", "cd", key))
	assert.NoError(t, err)
}

func TestLocalFSDriver_GetMissingKey(t *testing.T) {
	t.Parallel()

	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)

	_, _, err = driver.Get(context.Background(), "nosuchkey123")
	assert.Error(t, err)
}

func TestLocalFSDriver_Delete(t *testing.T) {
	t.Parallel()

	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	key := "deadbeef0001"
	require.NoError(t, driver.Save(ctx, key, strings.NewReader("x"), "text/plain"))
	require.NoError(t, driver.Delete(ctx, key))

	_, _, err = driver.Get(ctx, key)
	assert.Error(t, err)

	// Deleting again is a no-op.
	assert.NoError(t, driver.Delete(ctx, key))
}

func TestLocalFSDriver_GenerateURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	driver, err := NewLocalFSDriver(t.TempDir(), "/api/media")
	require.NoError(t, err)
	url, err := driver.GenerateURL(ctx, "abc123def456", 0)
	require.NoError(t, err)
	assert.Equal(t, "/api/media/abc123def456", url)

	bare, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)
	url, err = bare.GenerateURL(ctx, "abc123def456", 0)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", url)
}
