package composer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/anvil-platform/suitepath/internal/dependency"
)

// expandDirect turns file entries into concrete paths. Plain
// collections pass through in declaration order; tree entries are
// walked now, at resolution time, because directory contents may have
// changed since declaration.
func expandDirect(entries []dependency.Files) ([]string, error) {
	var out []string
	for _, entry := range entries {
		out = append(out, entry.Paths...)
		if entry.Root == "" {
			continue
		}
		expanded, err := expandTree(entry.Root, entry.Includes, entry.Excludes)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandTree(root string, includes, excludes []string) ([]string, error) {
	// A declared tree over a directory that never existed contributes
	// nothing; any error after the root lookup is real and propagates.
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("composer: expand file tree %s: %w", root, err)
	}
	var matched []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(includes) > 0 && !matchesAny(includes, rel) {
			return nil
		}
		if matchesAny(excludes, rel) {
			return nil
		}
		matched = append(matched, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("composer: expand file tree %s: %w", root, err)
	}
	sort.Strings(matched)
	return matched, nil
}

// matchesAny applies glob patterns: patterns without a slash match the
// base name, patterns with slashes match the slash-separated path
// relative to the tree root.
func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		target := rel
		if !hasSlash(pattern) {
			target = path.Base(rel)
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

func hasSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}
