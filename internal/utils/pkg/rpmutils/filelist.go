package rpmutils

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
)

// FileList walks root recursively and yields every file whose name ends in
// ext, compared case-insensitively. The sequence can be ranged over again to
// restart the walk. A directory that cannot be read ends the sequence with
// an error wrapping pkg.ErrDirectoryAccess.
func FileList(root, ext string) iter.Seq2[string, error] {
	ext = strings.ToLower(ext)
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("%w: %s: %v", pkg.ErrDirectoryAccess, p, err)
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ext) {
				return nil
			}
			if !yield(filepath.Clean(p), nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

// CollectFiles drains FileList into a slice.
func CollectFiles(root, ext string) ([]string, error) {
	var out []string
	for p, err := range FileList(root, ext) {
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Exclude drops every path matching one of globs, tried against both the
// full path and its base name.
func Exclude(paths []string, globs []string) []string {
	if len(globs) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, globs) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAny(p string, globs []string) bool {
	base := filepath.Base(p)
	for _, g := range globs {
		if ok, _ := filepath.Match(g, p); ok {
			return true
		}
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
	}
	return false
}

// LocalInventory maps every regular file under root, by slash-separated path
// relative to root, to its size. A missing root is an empty inventory.
func LocalInventory(root string) (map[string]int64, error) {
	inv := make(map[string]int64)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return inv, nil
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %v", pkg.ErrDirectoryAccess, p, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", pkg.ErrDirectoryAccess, p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		inv[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
