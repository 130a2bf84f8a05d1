package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage manages the directory downloads are written into.
type LocalStorage struct {
	outputDir string
}

func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{outputDir: outputDir}
}

func (s *LocalStorage) Dir() string {
	return s.outputDir
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// NewestFile returns the most recently modified regular file in the output
// directory, or "" if there is none.
func (s *LocalStorage) NewestFile() (string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(s.outputDir, entry.Name())
			newestTime = info.ModTime()
		}
	}

	return newest, nil
}

func (s *LocalStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
