package reliability

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArchive_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"warehouse.db":         "warehouse contents",
		"jobhistory.db":        "history contents",
		"backup-metadata.json": `{"version":"1.0.0"}`,
	}
	names := make([]string, 0, len(files))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
		names = append(names, name)
	}

	archivePath := filepath.Join(dir, "backup.tar.gz")
	require.NoError(t, createArchive(archivePath, dir, names))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	extracted := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		extracted[header.Name] = string(data)
	}

	assert.Equal(t, files, extracted)
}

func TestCreateArchive_MissingFile(t *testing.T) {
	dir := t.TempDir()

	archivePath := filepath.Join(dir, "backup.tar.gz")
	err := createArchive(archivePath, dir, []string{"missing.db"})
	assert.Error(t, err)
}

func TestFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.db")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := fileChecksum(path)
	require.NoError(t, err)

	// sha256("hello")
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	again, err := fileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}

func TestWriteMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup-metadata.json")

	meta := BackupMetadata{
		Timestamp: time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC),
		Version:   "1.0.0",
		Databases: []DatabaseMetadata{
			{Name: "warehouse", Filename: "warehouse.db", SizeBytes: 42, Checksum: "sha256:abc"},
		},
	}
	require.NoError(t, writeMetadata(path, meta))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warehouse.db"`)
	assert.Contains(t, string(data), `"2026-03-10T02:30:00Z"`)
}
