package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "/uploads/")
	require.NoError(t, err)

	url, path, err := store.Save("reports", "appt-1", "blood test.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/uploads/reports/appt-1/blood_test.pdf", url)
	assert.Equal(t, filepath.Join("reports", "appt-1", "blood_test.pdf"), path)

	data, err := os.ReadFile(filepath.Join(root, path))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(filepath.Join(root, path))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.Error(t, store.Remove("../etc/passwd"))
	assert.Error(t, store.Remove("/etc/passwd"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a_b.txt", SanitizeFileName("a b.txt"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "", SanitizeFileName("."))
}
