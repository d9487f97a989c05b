package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Source locates the bytes of a class that has not been defined yet. It
// returns ErrClassNotFound, possibly wrapped, when it has no such class.
type Source interface {
	Locate(name string) (path string, data []byte, err error)
}

// DirSource searches directories in order for <dir>/<name>.class. A name may
// contain slashes for classes in packages, but must stay inside the
// directory: absolute names and names with ".." segments are rejected.
type DirSource struct {
	Dirs []string
}

func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{Dirs: dirs}
}

func (s *DirSource) Locate(name string) (string, []byte, error) {
	rel := filepath.FromSlash(name) + ".class"
	if !filepath.IsLocal(rel) || slices.Contains(strings.Split(name, "/"), "..") {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidClassName, name)
	}
	for _, dir := range s.Dirs {
		path := filepath.Join(dir, rel)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(data) == 0 {
			return "", nil, fmt.Errorf("%w: %s is empty", ErrClassNotFound, path)
		}
		return path, data, nil
	}
	return "", nil, fmt.Errorf("%w: %s not in %v", ErrClassNotFound, name, s.Dirs)
}
