// Package lockfile parses pnpm-compatible pnpm-lock.yaml documents.
// Consumption only; the engine never writes a lockfile.
package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.LockfileLoader.
type Loader struct{}

// NewLoader creates a lockfile loader.
func NewLoader() *Loader {
	return &Loader{}
}

// lockfileDoc mirrors the pnpm lockfile v6 shape. A single-importer
// document inlines the project snapshot at the top level; workspace
// documents carry an importers map instead.
type lockfileDoc struct {
	LockfileVersion string                     `yaml:"lockfileVersion"`
	Settings        settingsDoc                `yaml:"settings"`
	Importers       map[string]snapshotDoc     `yaml:"importers"`
	Dependencies    map[string]lockedDepDoc    `yaml:"dependencies"`
	DevDependencies map[string]lockedDepDoc    `yaml:"devDependencies"`
	OptionalDeps    map[string]lockedDepDoc    `yaml:"optionalDependencies"`
	Packages        map[string]packageSnapshot `yaml:"packages"`
}

type settingsDoc struct {
	AutoInstallPeers bool `yaml:"autoInstallPeers"`
}

type snapshotDoc struct {
	Dependencies    map[string]lockedDepDoc `yaml:"dependencies"`
	DevDependencies map[string]lockedDepDoc `yaml:"devDependencies"`
	OptionalDeps    map[string]lockedDepDoc `yaml:"optionalDependencies"`
}

type lockedDepDoc struct {
	Specifier string `yaml:"specifier"`
	Version   string `yaml:"version"`
}

type packageSnapshot struct {
	Resolution   resolutionDoc     `yaml:"resolution"`
	Dependencies map[string]string `yaml:"dependencies"`
	OptionalDeps map[string]string `yaml:"optionalDependencies"`
}

type resolutionDoc struct {
	Integrity string `yaml:"integrity"`
	Tarball   string `yaml:"tarball"`
}

// Load parses the project's lockfile. Returns nil, nil when the project
// has none.
func (l *Loader) Load(projectDir string) (*domain.Lockfile, error) {
	path := filepath.Join(projectDir, domain.LockfileName)
	//nolint:gosec // the lockfile path derives from the project dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.With(domain.ErrLockfileFormat, "cause", err.Error()), "path", path)
	}

	var doc lockfileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.With(domain.ErrLockfileFormat, "cause", err.Error()), "path", path)
	}

	lf := &domain.Lockfile{
		Version:  doc.LockfileVersion,
		Settings: domain.LockfileSettings{AutoInstallPeers: doc.Settings.AutoInstallPeers},
		Packages: make(map[string]domain.PackageSnapshot, len(doc.Packages)),
	}

	// Multi-importer lockfiles contribute their root importer; this core
	// handles only the single-importer case.
	snapshot := snapshotDoc{
		Dependencies:    doc.Dependencies,
		DevDependencies: doc.DevDependencies,
		OptionalDeps:    doc.OptionalDeps,
	}
	if root, ok := doc.Importers["."]; ok {
		snapshot = root
	}
	lf.Importer = domain.ProjectSnapshot{
		Dependencies:         convertLockedDeps(snapshot.Dependencies),
		DevDependencies:      convertLockedDeps(snapshot.DevDependencies),
		OptionalDependencies: convertLockedDeps(snapshot.OptionalDeps),
	}

	for key, pkg := range doc.Packages {
		lf.Packages[key] = domain.PackageSnapshot{
			Resolution: domain.LockfileResolution{
				Integrity: pkg.Resolution.Integrity,
				Tarball:   pkg.Resolution.Tarball,
			},
			Dependencies:         pkg.Dependencies,
			OptionalDependencies: pkg.OptionalDeps,
		}
	}

	return lf, nil
}

func convertLockedDeps(docs map[string]lockedDepDoc) map[string]domain.LockedDependency {
	deps := make(map[string]domain.LockedDependency, len(docs))
	for name, doc := range docs {
		deps[name] = domain.LockedDependency{Specifier: doc.Specifier, Version: doc.Version}
	}
	return deps
}
