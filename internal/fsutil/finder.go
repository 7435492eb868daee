// Package fsutil provides file system helpers for locating and resolving
// prefab documents.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension walks rootPath and returns the full paths of every
// file whose name ends with extension.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ResolveSource resolves a source path referenced by a prefab document.
// Relative paths are taken relative to the referencing document's directory,
// absolute paths pass through unchanged. The result is cleaned so every
// document has one canonical path to key caches by.
func ResolveSource(documentPath, sourcePath string) string {
	if filepath.IsAbs(sourcePath) {
		return filepath.Clean(sourcePath)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(documentPath), sourcePath))
}
