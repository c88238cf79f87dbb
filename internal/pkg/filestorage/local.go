// Package filestorage keeps copies of uploaded files on the local disk.
package filestorage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalStorage saves files under a base directory, one subdirectory per day.
type LocalStorage struct {
	basePath string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath, now: time.Now, logger: logger}, nil
}

// Save copies r to a new file named after a fresh uuid plus the extension of
// filename, and returns its path relative to the base directory.
func (ls *LocalStorage) Save(filename string, r io.Reader) (string, error) {
	// Create subdirectory for the day
	day := ls.now().UTC().Format("2006-01-02")
	dir := filepath.Join(ls.basePath, day)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	// Generate unique filename
	stored := uuid.New().String() + filepath.Ext(filename)
	dstPath := filepath.Join(dir, stored)

	// Create destination file
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	// Copy file content
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	rel := filepath.Join(day, stored)
	ls.logger.Info().Str("filename", filename).Str("saved_as", rel).Msg("File saved successfully")
	return rel, nil
}

// Delete removes a file produced by Save. A missing file is not an error.
func (ls *LocalStorage) Delete(rel string) error {
	// Security check to prevent directory traversal
	clean := filepath.Clean(rel)
	if !filepath.IsLocal(clean) {
		return fmt.Errorf("invalid file path: %s", rel)
	}
	if err := os.Remove(filepath.Join(ls.basePath, clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	ls.logger.Info().Str("path", clean).Msg("File deleted successfully")
	return nil
}
