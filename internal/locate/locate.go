// Package locate discovers source files for a metric family.
package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/tskov/fitloom/internal/errors"
)

// Files walks root recursively and returns every regular file whose base
// name matches one of the glob patterns, sorted lexicographically by path.
// An empty result is valid. Symbolic links are never followed, so a link
// cycle inside root cannot cause infinite recursion.
//
// A missing root directory is ErrSourceNotFound.
func Files(root string, patterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrSourceNotFound, "%s", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrSourceNotFound, "%s is not a directory", root)
	}

	var matches []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// WalkDir does not descend into symlinked directories, but a
		// symlinked file could still alias another matched file. Skip
		// links entirely.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return nil
		}

		for _, pattern := range patterns {
			ok, err := filepath.Match(pattern, d.Name())
			if err != nil {
				return errors.Wrapf(err, "invalid pattern %q", pattern)
			}
			if ok {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}
