package deploy

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ValidateFunctionDir checks that the adaptation code directory contains the
// expected function entry file.
func ValidateFunctionDir(dir string) error {
	entry := filepath.Join(dir, FunctionHandlerFile)
	info, err := os.Stat(entry)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("inference code in %s does not contain the entry file %s", dir, FunctionHandlerFile)
		}
		return fmt.Errorf("failed to inspect inference code directory: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("inference code entry %s is a directory, expected a file", FunctionHandlerFile)
	}
	return nil
}

// ZipDirectory packages the directory content into an in-memory zip archive.
// Archive paths are relative to the directory root.
func ZipDirectory(dir string) ([]byte, error) {
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		writer, err := archive.Create(filepath.ToSlash(relative))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to package directory %s: %w", dir, err)
	}
	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

// TarGzDirectory packages the directory content into a temporary tar.gz file,
// the archive form SageMaker expects for model data, and returns its path.
func TarGzDirectory(dir string) (string, error) {
	out, err := os.CreateTemp("", "mlaws-model-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	compressor := gzip.NewWriter(out)
	archive := tar.NewWriter(compressor)

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}

		header := &tar.Header{
			Name:    filepath.ToSlash(relative),
			Mode:    int64(info.Mode().Perm()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if err := archive.WriteHeader(header); err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(archive, file)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to package directory %s: %w", dir, err)
	}
	if err := archive.Close(); err != nil {
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	return out.Name(), nil
}
