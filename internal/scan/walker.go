package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"unpakr/internal/services"
)

// Walk visits root and every directory reachable beneath it, calling fn once
// per directory, parent before children, siblings in lexical order. Symlinked
// directories are traversed like regular directories; there is no cycle
// detection, so a self-referential link will loop. Returning an error from fn
// stops the walk.
func Walk(root string, fn func(dir string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "scan", "walk", fmt.Sprintf("stat %s", root), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "scan", "walk", fmt.Sprintf("%s is not a directory", root), nil)
	}
	return walkDir(root, fn)
}

func walkDir(dir string, fn func(dir string) error) error {
	if err := fn(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "scan", "walk", fmt.Sprintf("read %s", dir), err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		child := filepath.Join(dir, name)
		// Stat (not Lstat) so symlinked directories are followed.
		info, err := os.Stat(child)
		if err != nil {
			// Dangling symlinks and racing deletions are not walk failures.
			if os.IsNotExist(err) {
				continue
			}
			return services.Wrap(services.ErrFilesystem, "scan", "walk", fmt.Sprintf("stat %s", child), err)
		}
		if !info.IsDir() {
			continue
		}
		if err := walkDir(child, fn); err != nil {
			return err
		}
	}
	return nil
}
