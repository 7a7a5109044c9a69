package ports

import "go.trai.ch/pacquet/internal/core/domain"

// PackageImporter projects store entries into project directories and
// wires symlinks between them.
//
//go:generate mockgen -source=importer.go -destination=mocks/mock_importer.go -package=mocks
type PackageImporter interface {
	// ImportPackage clones every file of a package from the store into
	// dir, restoring executable bits. An already-complete dir is left
	// alone. The clone strategy is reflink, then hard link, then copy.
	ImportPackage(dir string, files domain.PackageFiles) error

	// LinkPackage creates a symlink at linkPath pointing at targetDir.
	// Correct existing links are left alone; wrong ones are replaced
	// atomically. A foreign file in the way surfaces
	// domain.ErrFilesystemConflict.
	LinkPackage(linkPath, targetDir string) error
}
