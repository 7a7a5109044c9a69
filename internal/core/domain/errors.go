package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidPackageSpec is returned when a dependency argument cannot
	// be split into a name and a version requirement.
	ErrInvalidPackageSpec = zerr.New("invalid package specifier")

	// ErrPackageNotFound is returned when the registry has no package
	// under the requested name.
	ErrPackageNotFound = zerr.New("package not found in registry")

	// ErrNoMatchingVersion is returned when no published version
	// satisfies the requested range.
	ErrNoMatchingVersion = zerr.New("no version satisfies the requested range")

	// ErrInvalidRange is returned when a version requirement cannot be
	// parsed.
	ErrInvalidRange = zerr.New("invalid version range")

	// ErrRegistryRequest is returned for registry responses that are
	// neither success nor retriable.
	ErrRegistryRequest = zerr.New("registry request failed")

	// ErrRegistryUnavailable is returned after retriable registry
	// failures exhaust their retry budget.
	ErrRegistryUnavailable = zerr.New("registry unavailable")

	// ErrIntegrityMismatch is returned when downloaded bytes do not hash
	// to the advertised digest. Never retried.
	ErrIntegrityMismatch = zerr.New("integrity checksum mismatch")

	// ErrInvalidIntegrity is returned when an integrity string cannot be
	// parsed or names an unknown algorithm.
	ErrInvalidIntegrity = zerr.New("invalid integrity string")

	// ErrTarballFormat is returned for malformed tarballs and truncated
	// or invalid gzip streams.
	ErrTarballFormat = zerr.New("malformed package tarball")

	// ErrTarballDownload is returned when a tarball cannot be fetched
	// after retries.
	ErrTarballDownload = zerr.New("failed to download tarball")

	// ErrManifestFormat is returned when package.json cannot be parsed.
	ErrManifestFormat = zerr.New("invalid package.json")

	// ErrManifestNotFound is returned when a project has no package.json.
	ErrManifestNotFound = zerr.New("package.json not found")

	// ErrManifestWrite is returned when the manifest cannot be persisted.
	ErrManifestWrite = zerr.New("failed to write package.json")

	// ErrLockfileFormat is returned when pnpm-lock.yaml cannot be parsed.
	ErrLockfileFormat = zerr.New("invalid pnpm-lock.yaml")

	// ErrLockfileMissing is returned in frozen-lockfile mode when no
	// lockfile exists.
	ErrLockfileMissing = zerr.New("pnpm-lock.yaml is absent")

	// ErrFrozenLockfileStale is returned when the lockfile disagrees with
	// the manifest in frozen-lockfile mode.
	ErrFrozenLockfileStale = zerr.New("lockfile is out of date with package.json")

	// ErrFilesystemConflict is returned when a foreign file occupies a
	// path the linker must own.
	ErrFilesystemConflict = zerr.New("unexpected file in the way of a link")

	// ErrScriptMissing is returned when run is asked for a script the
	// manifest does not declare.
	ErrScriptMissing = zerr.New("script not found in package.json")

	// ErrStoreWrite is returned when a store entry cannot be written.
	ErrStoreWrite = zerr.New("failed to write store entry")

	// ErrStoreRead is returned when a store entry cannot be read.
	ErrStoreRead = zerr.New("failed to read store entry")

	// ErrStorePrune is returned when pruning the store fails.
	ErrStorePrune = zerr.New("failed to prune store")

	// ErrNoStoreDir is returned when no store directory can be resolved
	// from configuration or environment.
	ErrNoStoreDir = zerr.New("cannot determine store directory")

	// ErrUnsupportedImportMethod is returned for package-import-method
	// values other than auto.
	ErrUnsupportedImportMethod = zerr.New("unsupported package-import-method")

	// ErrInvalidRegistryURL is returned when the configured registry is
	// not an HTTP(S) URL.
	ErrInvalidRegistryURL = zerr.New("invalid registry URL")

	// ErrMissingGraphNode is returned when a resolved graph references a
	// package it does not contain.
	ErrMissingGraphNode = zerr.New("resolved graph is missing a package")

	// ErrImportPackage is returned when materializing a package from the
	// store fails.
	ErrImportPackage = zerr.New("failed to import package from store")
)
