// Package domain contains the core domain models for the install engine.
package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DependencyGroup identifies a dependency block of a package.json manifest.
type DependencyGroup string

const (
	// GroupProd is the regular "dependencies" block.
	GroupProd DependencyGroup = "dependencies"
	// GroupDev is the "devDependencies" block.
	GroupDev DependencyGroup = "devDependencies"
	// GroupOptional is the "optionalDependencies" block.
	GroupOptional DependencyGroup = "optionalDependencies"
)

// PackageSpec is a dependency request: a package name plus a semver
// range or exact version. An empty Range resolves through the "latest"
// dist-tag.
type PackageSpec struct {
	Name  string
	Range string
}

// ParsePackageSpec splits a CLI argument of the form "name" or
// "name@range" into a PackageSpec. Scoped names keep their leading "@".
func ParsePackageSpec(arg string) (PackageSpec, error) {
	if arg == "" {
		return PackageSpec{}, ErrInvalidPackageSpec
	}
	// The "@" separating name from range is the last one, so scoped
	// names such as "@fastify/error@^3.0.0" parse correctly.
	if idx := strings.LastIndex(arg, "@"); idx > 0 {
		return PackageSpec{Name: arg[:idx], Range: arg[idx+1:]}, nil
	}
	return PackageSpec{Name: arg}, nil
}

func (s PackageSpec) String() string {
	if s.Range == "" {
		return s.Name
	}
	return s.Name + "@" + s.Range
}

// ResolvedPackage is one exactly-versioned package. There is at most one
// ResolvedPackage per (name, version) in an install run; Key is the
// deduplication key.
type ResolvedPackage struct {
	Name      string
	Version   string
	Tarball   string
	Integrity Integrity

	Dependencies         map[string]string
	OptionalDependencies map[string]string
	PeerDependencies     map[string]string
}

// Key returns the canonical "name@version" identity of the package.
func (p *ResolvedPackage) Key() string {
	return p.Name + "@" + p.Version
}

// maxStoreNameLength bounds virtual-store folder names. Longer names are
// replaced by a hash so deep scoped names cannot exceed filesystem limits.
const maxStoreNameLength = 120

// VirtualStoreName returns the folder name of this package inside the
// virtual store: "/" in scoped names becomes "+", e.g.
// "@fastify/error@3.3.0" -> "@fastify+error@3.3.0".
func (p *ResolvedPackage) VirtualStoreName() string {
	return VirtualStoreName(p.Name, p.Version)
}

// VirtualStoreName builds the virtual-store folder name for a
// name/version pair.
func VirtualStoreName(name, version string) string {
	folder := strings.ReplaceAll(name, "/", "+") + "@" + version
	if len(folder) > maxStoreNameLength {
		sum := xxhash.Sum64String(folder)
		return fmt.Sprintf("%s_%016x", folder[:maxStoreNameLength-17], sum)
	}
	return folder
}

// DependencySpecs returns the package's runtime dependency requests in
// deterministic order. Optional dependencies are included when
// includeOptional is set; peer dependencies when includePeers is set
// (the auto-install-peers behavior). A name listed in several blocks is
// emitted once, with the regular dependencies block winning.
func (p *ResolvedPackage) DependencySpecs(includeOptional, includePeers bool) []PackageSpec {
	merged := make(map[string]string, len(p.Dependencies))
	if includePeers {
		for name, rng := range p.PeerDependencies {
			merged[name] = rng
		}
	}
	if includeOptional {
		for name, rng := range p.OptionalDependencies {
			merged[name] = rng
		}
	}
	for name, rng := range p.Dependencies {
		merged[name] = rng
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]PackageSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, PackageSpec{Name: name, Range: merged[name]})
	}
	return specs
}

// SaveSpec renders the version requirement written back to a manifest by
// `add`: the exact version when saveExact, a caret range otherwise.
func (p *ResolvedPackage) SaveSpec(saveExact bool) string {
	if saveExact {
		return p.Version
	}
	return "^" + p.Version
}

// PackageMetadata is the in-memory form of a registry packument: every
// published version of one package plus its dist-tags. It lives only for
// the duration of one install.
type PackageMetadata struct {
	Name     string
	DistTags map[string]string
	Versions map[string]*ResolvedPackage
}

// FileEntry describes one regular file extracted from a package tarball,
// addressed by the hex sha512 of its raw bytes.
type FileEntry struct {
	Hash       string
	Executable bool
	Size       int64
}

// PackageFiles maps tarball-relative paths (with the leading "package/"
// component stripped) to their store entries.
type PackageFiles map[string]FileEntry

// TarballIndex is the JSON document persisted next to the CAS entries of
// one tarball ("<hash>-index.json"). It lets later installs skip
// re-exploding a tarball whose files are already in the store.
type TarballIndex struct {
	Files map[string]TarballIndexEntry `json:"files"`
}

// TarballIndexEntry records one file of a tarball index.
type TarballIndexEntry struct {
	Integrity string `json:"integrity"`
	Mode      uint32 `json:"mode"`
	Size      int64  `json:"size,omitempty"`
}

// InstallSummary is reported after an install completes.
type InstallSummary struct {
	Resolved   int
	Downloaded int
	Reused     int
	Linked     int
}
