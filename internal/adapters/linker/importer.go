// Package linker materializes packages from the store into project
// directories and wires node_modules symlinks.
package linker

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
)

// Importer implements ports.PackageImporter with the "auto" strategy:
// copy-on-write reflink where the filesystem supports it, hard links as
// the fallback, byte copies as the last resort. The chosen mechanism is
// remembered per process so every file does not re-probe.
type Importer struct {
	store  ports.CasStore
	logger ports.Logger
	clone  *cloneStrategy
}

// NewImporter creates an Importer reading from store.
func NewImporter(store ports.CasStore, logger ports.Logger) *Importer {
	return &Importer{
		store:  store,
		logger: logger,
		clone:  newCloneStrategy(),
	}
}

// ImportPackage clones every file of a package into dir. The tree is
// staged in a sibling directory and renamed into place, so a crashed
// import never leaves a directory that looks complete; an existing dir
// short-circuits.
func (im *Importer) ImportPackage(dir string, files domain.PackageFiles) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}

	stage := dir + ".stage-" + strconv.Itoa(os.Getpid())
	if err := os.MkdirAll(stage, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrImportPackage.Error()), "path", stage)
	}
	defer func() { _ = os.RemoveAll(stage) }()

	for rel, entry := range files {
		src := im.store.FilePath(entry.Hash, entry.Executable)
		dst := filepath.Join(stage, rel)
		if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrImportPackage.Error()), "path", dst)
		}
		if err := im.cloneFile(src, dst, entry.Executable); err != nil {
			wrapped := zerr.With(err, "source", src)
			return zerr.With(wrapped, "path", dst)
		}
	}

	if err := os.Rename(stage, dir); err != nil {
		// A concurrent import of the same package may have won the
		// rename; its tree is identical, so losing is fine.
		if _, statErr := os.Stat(dir); statErr == nil {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrImportPackage.Error()), "path", dir)
	}
	return nil
}

// cloneFile materializes one store entry, retrying a missing source once:
// a concurrent writer may still be renaming the entry into place.
func (im *Importer) cloneFile(src, dst string, executable bool) error {
	err := im.clone.clone(src, dst)
	if errors.Is(err, fs.ErrNotExist) {
		err = im.clone.clone(src, dst)
	}
	if err != nil {
		return zerr.Wrap(err, domain.ErrImportPackage.Error())
	}

	if executable {
		// Hard links share the store entry's mode; copies need it
		// restored explicitly.
		if err := os.Chmod(dst, domain.ExecFilePerm); err != nil {
			return zerr.Wrap(err, domain.ErrImportPackage.Error())
		}
	}
	return nil
}

// LinkPackage creates a relative symlink at linkPath pointing at
// targetDir. Correct links are left alone. Wrong links are replaced
// atomically via a sibling temp link and rename. Anything else in the
// way surfaces domain.ErrFilesystemConflict.
func (im *Importer) LinkPackage(linkPath, targetDir string) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFilesystemConflict.Error()), "path", linkPath)
	}

	target, err := filepath.Rel(filepath.Dir(linkPath), targetDir)
	if err != nil {
		target = targetDir
	}

	info, lerr := os.Lstat(linkPath)
	switch {
	case lerr == nil && info.Mode()&os.ModeSymlink != 0:
		existing, rerr := os.Readlink(linkPath)
		if rerr == nil && existing == target {
			return nil
		}
		return im.replaceLink(linkPath, target)

	case lerr == nil:
		conflict := zerr.With(domain.ErrFilesystemConflict, "path", linkPath)
		return zerr.With(conflict, "target", targetDir)

	case errors.Is(lerr, fs.ErrNotExist):
		if err := os.Symlink(target, linkPath); err != nil {
			if errors.Is(err, fs.ErrExist) {
				// Lost a race against a concurrent linker; verify.
				if existing, rerr := os.Readlink(linkPath); rerr == nil && existing == target {
					return nil
				}
				return im.replaceLink(linkPath, target)
			}
			return zerr.With(zerr.Wrap(err, domain.ErrFilesystemConflict.Error()), "path", linkPath)
		}
		return nil

	default:
		return zerr.With(zerr.Wrap(lerr, domain.ErrFilesystemConflict.Error()), "path", linkPath)
	}
}

// replaceLink swaps a wrong symlink for the desired one without a window
// where the path is absent.
func (im *Importer) replaceLink(linkPath, target string) error {
	tmp := linkPath + ".new-" + strconv.Itoa(os.Getpid())
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFilesystemConflict.Error()), "path", linkPath)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrFilesystemConflict.Error()), "path", linkPath)
	}
	return nil
}

// cloneStrategy tries reflink, then hard link, then byte copy, and
// remembers mechanisms that the filesystem rejected. Packages import
// concurrently, hence the atomics.
type cloneStrategy struct {
	reflinkBroken atomic.Bool
	linkBroken    atomic.Bool
}

func newCloneStrategy() *cloneStrategy {
	return &cloneStrategy{}
}

func (c *cloneStrategy) clone(src, dst string) error {
	if !c.reflinkBroken.Load() {
		err := reflink(src, dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		c.reflinkBroken.Store(true)
	}

	if !c.linkBroken.Load() {
		err := os.Link(src, dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		c.linkBroken.Store(true)
	}

	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
