package safeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsUnder reports whether targetPath stays inside rootDir once both are made
// absolute.
func IsUnder(rootDir, targetPath string) bool {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return false
	}
	return !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// ReadFileUnder reads targetPath only if it resolves under rootDir.
func ReadFileUnder(rootDir, targetPath string) ([]byte, error) {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return nil, fmt.Errorf("compute relative path: %w", err)
	}
	if escapes(rel) {
		return nil, fmt.Errorf("path escapes root: %s", targetPath)
	}

	root, err := os.OpenRoot(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Clean(rel))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ReadFile reads the exact targetPath by opening its parent directory as a root.
func ReadFile(targetPath string) ([]byte, error) {
	root, name, err := openParent(targetPath)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	file, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ReadFileWithin confines reads to rootDir when targetPath lies inside it and
// otherwise reads the exact file the caller named.
func ReadFileWithin(rootDir, targetPath string) ([]byte, error) {
	if IsUnder(rootDir, targetPath) {
		return ReadFileUnder(rootDir, targetPath)
	}
	return ReadFile(targetPath)
}

// WriteFile writes data to targetPath through its parent directory, creating
// the parent when missing. Symlinks that leave the parent are not followed.
func WriteFile(targetPath string, data []byte, perm os.FileMode) error {
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(targetAbs), 0o750); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	root, name, err := openParent(targetAbs)
	if err != nil {
		return err
	}
	defer root.Close()
	return root.WriteFile(name, data, perm)
}

func openParent(targetPath string) (*os.Root, string, error) {
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve target path: %w", err)
	}
	root, err := os.OpenRoot(filepath.Dir(targetAbs))
	if err != nil {
		return nil, "", fmt.Errorf("open parent root: %w", err)
	}
	return root, filepath.Base(targetAbs), nil
}
