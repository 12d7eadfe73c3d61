// Package workspace holds the housekeeping helpers around a kernel build:
// output cleanup, crate manifest lookup, editor settings and image
// compression. None of them spawn toolchain processes.
package workspace

import (
	"os"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/paths"
)

// CleanResult reports what Clean did
type CleanResult struct {
	Removed []string `json:"removed"`
	Absent  []string `json:"absent"`
}

// NothingToDo reports whether no directory had to be removed
func (r *CleanResult) NothingToDo() bool {
	return len(r.Removed) == 0
}

// Clean removes the given build output directories. Directories that do
// not exist are recorded as absent; calling Clean twice is harmless.
func Clean(dirs ...string) (*CleanResult, error) {
	result := &CleanResult{}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if !paths.Exists(dir) {
			result.Absent = append(result.Absent, dir)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return result, errors.ErrWorkspaceIO.
				WithMessagef("failed to remove %s", dir).WithCause(err)
		}
		result.Removed = append(result.Removed, dir)
	}
	return result, nil
}
