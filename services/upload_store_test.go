package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStoreSave(t *testing.T) {
	store, err := NewUploadStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	path, err := store.Save("notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir, "notes.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestUploadStoreStripsPathTraversal(t *testing.T) {
	store, err := NewUploadStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	// Only the base name is kept, so traversal attempts land inside the
	// uploads directory.
	path, err := store.Save("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir, "passwd"), path)
}
