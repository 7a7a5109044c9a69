// Package cas implements the shared content-addressed store on the
// filesystem, following the pnpm v3 store layout.
package cas

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.CasStore. Entries are write-once: a new entry is
// staged in the store's tmp directory and renamed into place, so
// concurrent writers of identical content race benignly and readers never
// observe partial files.
type Store struct {
	dir domain.StoreDir
}

// NewStore opens (creating if needed) the store rooted at dir.
func NewStore(dir domain.StoreDir) (*Store, error) {
	if err := os.MkdirAll(dir.TmpDir(), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreWrite.Error()), "path", dir.TmpDir())
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store layout.
func (s *Store) Dir() domain.StoreDir {
	return s.dir
}

// FilePath returns the on-disk location of an entry.
func (s *Store) FilePath(hexDigest string, executable bool) string {
	return s.dir.FilePath(hexDigest, executable)
}

// WriteFile persists content under its sha512 digest and returns the hex
// digest. An existing entry is trusted and left untouched; the store
// never re-verifies its own files.
func (s *Store) WriteFile(content []byte, executable bool) (string, error) {
	sum := sha512.Sum512(content)
	hexDigest := hex.EncodeToString(sum[:])
	path := s.dir.FilePath(hexDigest, executable)

	if _, err := os.Lstat(path); err == nil {
		return hexDigest, nil
	}

	perm := domain.FilePerm
	if executable {
		perm = domain.ExecFilePerm
	}
	if err := s.writeAtomic(path, content, perm); err != nil {
		return "", zerr.With(err, "path", path)
	}
	return hexDigest, nil
}

// WriteIndex persists the index document of an exploded tarball next to
// its file entries.
func (s *Store) WriteIndex(integrity domain.Integrity, index *domain.TarballIndex) error {
	data, err := json.Marshal(index)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}
	path := s.dir.IndexFilePath(integrity)
	if err := s.writeAtomic(path, data, domain.FilePerm); err != nil {
		return zerr.With(err, "path", path)
	}
	return nil
}

// ReadIndex loads a tarball index. A missing index returns nil, nil.
func (s *Store) ReadIndex(integrity domain.Integrity) (*domain.TarballIndex, error) {
	path := s.dir.IndexFilePath(integrity)
	//nolint:gosec // Path derives from the store root and a hex digest
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreRead.Error()), "path", path)
	}

	var index domain.TarballIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreRead.Error()), "path", path)
	}
	return &index, nil
}

// writeAtomic stages data in the store tmp dir and renames it into place.
// Losing a rename race against a concurrent writer of the same content is
// harmless; the loser's rename simply replaces identical bytes.
func (s *Store) writeAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}

	tmp, err := os.CreateTemp(s.dir.TmpDir(), "write-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, domain.ErrStoreWrite.Error())
	}
	return nil
}
