package cas

import (
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
)

// Prune removes every immediate child of the store's package directory.
// A process-level advisory lock on the store root excludes concurrent
// pruners; installers only append and may skip the lock.
func (s *Store) Prune() error {
	v3 := s.dir.V3()
	if err := os.MkdirAll(v3, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStorePrune.Error()), "path", v3)
	}

	mu := lockedfile.MutexAt(s.dir.LockPath())
	unlock, err := mu.Lock()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStorePrune.Error()), "path", s.dir.LockPath())
	}
	defer unlock()

	entries, err := os.ReadDir(v3)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStorePrune.Error()), "path", v3)
	}

	lockName := filepath.Base(s.dir.LockPath())
	for _, entry := range entries {
		if entry.Name() == lockName {
			continue
		}
		child := filepath.Join(v3, entry.Name())
		if err := os.RemoveAll(child); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStorePrune.Error()), "path", child)
		}
	}

	// Recreate the staging area so later installs can write again.
	if err := os.MkdirAll(s.dir.TmpDir(), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStorePrune.Error()), "path", s.dir.TmpDir())
	}
	return nil
}
