package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ImportMethod controls how package files are materialized from the
// store into a project.
type ImportMethod string

const (
	// ImportAuto clones via reflink where the filesystem supports it,
	// falls back to hard links, then to plain copies.
	ImportAuto ImportMethod = "auto"
)

// DefaultRegistry is the npm public registry, trailing slash included.
const DefaultRegistry = "https://registry.npmjs.org/"

// Settings is the enumerated configuration of the install engine,
// assembled from defaults, the user .npmrc, and the project .npmrc.
// Unknown .npmrc keys never reach this struct.
type Settings struct {
	// StoreDir is the absolute root of the shared content-addressed store.
	StoreDir StoreDir

	// ModulesDir is the project-relative modules directory.
	ModulesDir string

	// VirtualStoreDir is the project-relative directory with links to the
	// store; all direct and indirect dependencies are linked there.
	VirtualStoreDir string

	// Registry is the base URL of the package registry, trailing slash
	// included.
	Registry string

	// AutoInstallPeers resolves missing peer dependencies as regular
	// dependencies when set.
	AutoInstallPeers bool

	// ImportMethod selects the file materialization strategy. Only
	// "auto" is supported.
	ImportMethod ImportMethod
}

// DefaultSettings returns the settings used when no .npmrc overrides
// anything. The store dir is resolved from the environment.
func DefaultSettings() (Settings, error) {
	storeDir, err := DefaultStoreDir()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		StoreDir:         storeDir,
		ModulesDir:       DefaultModulesDirName,
		VirtualStoreDir:  DefaultModulesDirName + "/" + DefaultVirtualStoreDirName,
		Registry:         DefaultRegistry,
		AutoInstallPeers: true,
		ImportMethod:     ImportAuto,
	}, nil
}

// Validate rejects configurations the engine cannot honor.
func (s *Settings) Validate() error {
	if s.StoreDir.IsZero() {
		return ErrNoStoreDir
	}
	if s.ImportMethod != ImportAuto {
		return zerr.With(ErrUnsupportedImportMethod, "package_import_method", string(s.ImportMethod))
	}
	if !strings.HasPrefix(s.Registry, "http://") && !strings.HasPrefix(s.Registry, "https://") {
		return zerr.With(ErrInvalidRegistryURL, "registry", s.Registry)
	}
	return nil
}
