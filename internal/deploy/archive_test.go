package deploy

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFunctionDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestValidateFunctionDir(t *testing.T) {
	t.Run("entry file present", func(t *testing.T) {
		dir := writeFunctionDir(t, map[string]string{FunctionHandlerFile: "def lambda_handler(): pass"})
		assert.NoError(t, ValidateFunctionDir(dir))
	})

	t.Run("entry file missing", func(t *testing.T) {
		dir := writeFunctionDir(t, map[string]string{"helpers.py": ""})
		err := ValidateFunctionDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not contain the entry file lambda_function.py")
	})

	t.Run("entry is a directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, FunctionHandlerFile), 0o755))
		err := ValidateFunctionDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a file")
	})
}

func TestZipDirectory(t *testing.T) {
	dir := writeFunctionDir(t, map[string]string{
		FunctionHandlerFile:            "handler code",
		filepath.Join("lib", "dep.py"): "dep code",
	})

	archived, err := ZipDirectory(dir)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(archived), int64(len(archived)))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, file := range reader.File {
		opened, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(opened)
		require.NoError(t, err)
		require.NoError(t, opened.Close())
		contents[file.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"lambda_function.py": "handler code",
		"lib/dep.py":         "dep code",
	}, contents)
}

func TestTarGzDirectory(t *testing.T) {
	dir := writeFunctionDir(t, map[string]string{
		"MLmodel":                          "artifact descriptor",
		filepath.Join("model", "data.pkl"): "weights",
	})

	archivePath, err := TarGzDirectory(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(archivePath) })

	file, err := os.Open(archivePath)
	require.NoError(t, err)
	defer file.Close()

	decompressor, err := gzip.NewReader(file)
	require.NoError(t, err)
	archive := tar.NewReader(decompressor)

	contents := map[string]string{}
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(archive)
		require.NoError(t, err)
		contents[header.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"MLmodel":        "artifact descriptor",
		"model/data.pkl": "weights",
	}, contents)
}
