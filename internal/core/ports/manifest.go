package ports

import "go.trai.ch/pacquet/internal/core/domain"

// ManifestStore reads and rewrites project package.json files. Writes
// preserve the manifest's key order.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestStore interface {
	// Load reads the manifest of a project directory.
	Load(projectDir string) (*domain.ProjectManifest, error)

	// EnsureManifest creates a minimal manifest if the project has none,
	// then loads it.
	EnsureManifest(projectDir string) (*domain.ProjectManifest, error)

	// AddDependency writes name: spec into the given dependency group,
	// creating the group block if needed and preserving key order
	// elsewhere.
	AddDependency(projectDir, name, spec string, group domain.DependencyGroup) error
}
