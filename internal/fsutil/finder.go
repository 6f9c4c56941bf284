// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension returns the files under rootPath whose name ends with
// one of the given extensions, in lexical order. Directories are searched
// recursively; a rootPath naming a regular file is returned as is when its
// extension matches. Extensions are compared case-insensitively.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if HasExtension(rootPath, extensions...) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && HasExtension(d.Name(), extensions...) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether name ends with one of the extensions.
func HasExtension(name string, extensions ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if ext == "" {
			panic("extension must not be empty")
		}
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
