package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Lockfile is the in-memory form of a parsed pnpm-lock.yaml. Only the
// single-importer case is consumed; multi-importer lockfiles contribute
// their "." importer.
type Lockfile struct {
	// Version is the "lockfileVersion" value, e.g. "6.0".
	Version string

	Settings LockfileSettings

	// Importer is the root project snapshot.
	Importer ProjectSnapshot

	// Packages maps dependency paths ("/<name>@<version>", optionally
	// prefixed with a custom registry host) to their snapshots.
	Packages map[string]PackageSnapshot
}

// LockfileSettings mirrors the lockfile's top-level "settings" block.
type LockfileSettings struct {
	AutoInstallPeers bool
}

// ProjectSnapshot lists the direct dependencies of one importer.
type ProjectSnapshot struct {
	Dependencies         map[string]LockedDependency
	DevDependencies      map[string]LockedDependency
	OptionalDependencies map[string]LockedDependency
}

// Group returns the snapshot map of one dependency group.
func (s *ProjectSnapshot) Group(group DependencyGroup) map[string]LockedDependency {
	switch group {
	case GroupDev:
		return s.DevDependencies
	case GroupOptional:
		return s.OptionalDependencies
	default:
		return s.Dependencies
	}
}

// LockedDependency is one importer entry: the manifest specifier it was
// resolved from and the exact version it resolved to.
type LockedDependency struct {
	Specifier string
	Version   string
}

// PackageSnapshot is one entry of the lockfile's "packages" map.
type PackageSnapshot struct {
	Resolution           LockfileResolution
	Dependencies         map[string]string
	OptionalDependencies map[string]string
}

// LockfileResolution carries the integrity and the optional explicit
// tarball URL of a registry-resolved package.
type LockfileResolution struct {
	Integrity string
	Tarball   string
}

// ParseDependencyPath splits a packages-map key into its registry host
// (empty for the default registry), package name, and version. The key
// syntax is "<host>/<name>@<version>" with an optional peer suffix in
// parentheses, e.g. "/ts-node@10.9.1(@types/node@18.7.19)".
func ParseDependencyPath(key string) (host, name, version string, err error) {
	host, specifier, ok := strings.Cut(key, "/")
	if !ok {
		return "", "", "", zerr.With(ErrLockfileFormat, "dependency_path", key)
	}

	if idx := strings.IndexByte(specifier, '('); idx >= 0 {
		specifier = specifier[:idx]
	}

	// Scoped specifiers look like "@scope/name@version"; the version
	// separator is the last "@".
	idx := strings.LastIndexByte(specifier, '@')
	if idx <= 0 {
		return "", "", "", zerr.With(ErrLockfileFormat, "dependency_path", key)
	}
	return host, specifier[:idx], specifier[idx+1:], nil
}
