package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tskov/fitloom/internal/errors"
)

const lockName = "run.lock"

// RunLock serializes pipeline runs against one output directory. Two runs
// interleaving their atomic-replace steps could leave the table set
// internally inconsistent, so the replace phase requires a single writer.
type RunLock struct {
	path string
}

// AcquireRunLock takes the run lock for dir, creating dir if needed.
// A held lock is ErrRunLocked. A lock left behind by a crashed run must be
// removed by hand; the lock file records the owning pid to make that call.
func AcquireRunLock(dir string) (*RunLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, lockName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(errors.ErrRunLocked, "%s", path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return &RunLock{path: path}, nil
}

// Release removes the lock file. Safe to call once per acquired lock.
func (l *RunLock) Release() error {
	return os.Remove(l.path)
}
