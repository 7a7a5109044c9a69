package domain

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// ManifestFileName is the project manifest consumed and rewritten by
	// the engine.
	ManifestFileName = "package.json"

	// LockfileName is the pnpm-compatible lockfile consumed in
	// frozen-lockfile mode.
	LockfileName = "pnpm-lock.yaml"

	// RcFileName is the per-project (and per-user) configuration file.
	RcFileName = ".npmrc"

	// DefaultModulesDirName is the project-relative modules directory.
	DefaultModulesDirName = "node_modules"

	// DefaultVirtualStoreDirName is the virtual store below the modules
	// directory.
	DefaultVirtualStoreDirName = ".pnpm"

	// BinDirName is the executables directory prepended to PATH by run.
	BinDirName = ".bin"

	// DirPerm is the default permission for directories (rwxr-xr-x).
	DirPerm os.FileMode = 0o755

	// FilePerm is the default permission for store files (rw-r--r--).
	FilePerm os.FileMode = 0o644

	// ExecFilePerm is the permission for executable store files.
	ExecFilePerm os.FileMode = 0o755
)

// StoreDir is the root of the shared content-addressed store. All store
// sub-paths derive from it; consumers interact with the derived paths
// rather than the root itself.
type StoreDir struct {
	root string
}

// NewStoreDir constructs a StoreDir rooted at the given path.
func NewStoreDir(root string) StoreDir {
	return StoreDir{root: filepath.Clean(root)}
}

func (s StoreDir) String() string { return s.root }

// IsZero reports whether the store dir is unset.
func (s StoreDir) IsZero() bool { return s.root == "" || s.root == "." }

// V3 returns "<store>/v3", the versioned layout root shared with pnpm.
func (s StoreDir) V3() string {
	return filepath.Join(s.root, "v3")
}

// FilesDir returns "<store>/v3/files", holding every content-addressed
// file entry.
func (s StoreDir) FilesDir() string {
	return filepath.Join(s.V3(), "files")
}

// TmpDir returns "<store>/v3/tmp", the staging area for atomic writes
// into the store.
func (s StoreDir) TmpDir() string {
	return filepath.Join(s.V3(), "tmp")
}

// LockPath returns the advisory lock file taken by store prune.
func (s StoreDir) LockPath() string {
	return filepath.Join(s.V3(), "lock")
}

// filePathByHex splits a hex digest into a two-character prefix directory
// and the remaining tail, optionally suffixed.
func (s StoreDir) filePathByHex(hexDigest, suffix string) string {
	head := hexDigest[:2]
	tail := hexDigest[2:] + suffix
	return filepath.Join(s.FilesDir(), head, tail)
}

// FilePath returns the store location of a file entry addressed by the
// hex form of its content hash. Executable entries carry an "-exec"
// suffix so the two modes of identical content do not collide.
func (s StoreDir) FilePath(hexDigest string, executable bool) string {
	suffix := ""
	if executable {
		suffix = "-exec"
	}
	return s.filePathByHex(hexDigest, suffix)
}

// IndexFilePath returns the location of the index document of a tarball,
// addressed by the tarball's own integrity digest.
func (s StoreDir) IndexFilePath(integrity Integrity) string {
	return s.filePathByHex(integrity.Hex(), "-index.json")
}

// PackageDir returns the canonical per-package anchor directory:
// "<store>/v3/<url-encoded-host>/<name>@<version>". The host is
// URL-encoded so one directory per registry stays filesystem-safe.
func (s StoreDir) PackageDir(registryHost, name, version string) string {
	return filepath.Join(s.V3(), url.QueryEscape(registryHost), name+"@"+version)
}

// DefaultStoreDir resolves the store location from the environment:
// $PNPM_HOME/store, then $XDG_DATA_HOME/pnpm/store, then the per-OS data
// directory convention.
func DefaultStoreDir() (StoreDir, error) {
	if pnpmHome := os.Getenv("PNPM_HOME"); pnpmHome != "" {
		return NewStoreDir(filepath.Join(pnpmHome, "store")), nil
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return NewStoreDir(filepath.Join(xdgData, "pnpm", "store")), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return StoreDir{}, ErrNoStoreDir
	}
	switch runtime.GOOS {
	case "darwin":
		return NewStoreDir(filepath.Join(home, "Library", "pnpm", "store")), nil
	case "windows":
		return NewStoreDir(filepath.Join(home, "AppData", "Local", "pnpm", "store")), nil
	default:
		return NewStoreDir(filepath.Join(home, ".local", "share", "pnpm", "store")), nil
	}
}

// VirtualPackageDir returns the directory holding one package's extracted
// tree inside a project's virtual store:
// "<virtual-store>/<name>@<ver>/node_modules/<name>".
func VirtualPackageDir(virtualStoreDir, name, version string) string {
	return filepath.Join(VirtualNodeModulesDir(virtualStoreDir, name, version), name)
}

// VirtualNodeModulesDir returns the private node_modules of one
// virtual-store entry, where its dependency symlinks live.
func VirtualNodeModulesDir(virtualStoreDir, name, version string) string {
	return filepath.Join(virtualStoreDir, VirtualStoreName(name, version), "node_modules")
}
