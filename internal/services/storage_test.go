package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/config"
)

func TestLocalStorageSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(config.StorageConfig{UploadDir: dir, BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.False(t, s.UsingS3())
	assert.Equal(t, dir, s.LocalDir())

	png := []byte("\x89PNG\r\n\x1a\n0000")
	url, err := s.save(context.Background(), "garages/3", ".PNG", png)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/garages/3/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, "garages", "3", name))
	require.NoError(t, err)
	assert.Equal(t, png, data)
}
