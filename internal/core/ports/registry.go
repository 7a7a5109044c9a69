package ports

import (
	"context"

	"go.trai.ch/pacquet/internal/core/domain"
)

// RegistryClient fetches package metadata from an npm-compatible registry
// and resolves version requirements against it. Implementations memoize
// by package name for the duration of one install.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type RegistryClient interface {
	// FetchPackage returns the metadata of every published version of a
	// package. A 404 maps to domain.ErrPackageNotFound.
	FetchPackage(ctx context.Context, name string) (*domain.PackageMetadata, error)

	// Resolve fetches the package's metadata and picks the version
	// satisfying the spec: the highest non-pre-release match unless the
	// requirement itself names a pre-release. An empty range resolves
	// through the "latest" dist-tag.
	Resolve(ctx context.Context, spec domain.PackageSpec) (*domain.ResolvedPackage, error)
}
