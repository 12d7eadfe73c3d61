package board

import (
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/bitswalk/kbuild/src/common/errors"
)

// readBatch is the number of directory entries fetched per read while iterating
const readBatch = 32

// Registry enumerates the boards available under a configuration root
type Registry struct {
	root string
}

// NewRegistry creates a registry over root
func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// Root returns the configuration root
func (r *Registry) Root() string {
	return r.root
}

// Boards returns a lazy sequence of board identifiers: the names of the
// immediate subdirectories of the root, in directory enumeration order.
// Plain files are skipped. The root is checked before the sequence is
// returned; the directory itself is read only while the sequence is consumed.
func (r *Registry) Boards() (iter.Seq[string], error) {
	info, err := os.Stat(r.root)
	if err != nil || !info.IsDir() {
		return nil, errors.ErrConfigRootMissing.
			WithMessagef("board configuration root %s does not exist or is not a directory", r.root)
	}

	return func(yield func(string) bool) {
		dir, err := os.Open(r.root)
		if err != nil {
			return
		}
		defer dir.Close()

		for {
			entries, err := dir.ReadDir(readBatch)
			for _, entry := range entries {
				if !r.isBoardDir(entry) {
					continue
				}
				if !yield(entry.Name()) {
					return
				}
			}
			// io.EOF ends the sequence; other read errors truncate it.
			if err != nil {
				return
			}
		}
	}, nil
}

// List collects Boards into a slice
func (r *Registry) List() ([]string, error) {
	seq, err := r.Boards()
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// isBoardDir reports whether entry is a directory, following symlinks
func (r *Registry) isBoardDir(entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(r.root, entry.Name()))
	return err == nil && info.IsDir()
}
