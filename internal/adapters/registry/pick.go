package registry

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
)

// PickVersion selects the version of meta that satisfies requirement.
// Among satisfying versions the highest wins; pre-releases are skipped
// unless the requirement itself names one. An empty requirement or
// "latest" resolves through the "latest" dist-tag.
func PickVersion(meta *domain.PackageMetadata, requirement string) (*domain.ResolvedPackage, error) {
	requirement = strings.TrimSpace(requirement)

	if requirement == "" || requirement == "latest" {
		return pickDistTag(meta, "latest")
	}

	// An exact published version short-circuits range matching. This also
	// covers exact pre-release pins such as "5.0.0-beta.3".
	if pkg, ok := meta.Versions[requirement]; ok {
		return pkg, nil
	}

	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		// Not a semver range; it may be a dist-tag like "next".
		if pkg, tagErr := pickDistTag(meta, requirement); tagErr == nil {
			return pkg, nil
		}
		invalid := zerr.With(domain.ErrInvalidRange, "cause", err.Error())
		invalid = zerr.With(invalid, "package", meta.Name)
		return nil, zerr.With(invalid, "range", requirement)
	}

	allowPrerelease := strings.Contains(requirement, "-")

	var best *semver.Version
	var bestPkg *domain.ResolvedPackage
	for versionStr, pkg := range meta.Versions {
		version, err := semver.NewVersion(versionStr)
		if err != nil {
			continue
		}
		if version.Prerelease() != "" && !allowPrerelease {
			continue
		}
		if !constraint.Check(version) {
			continue
		}
		if best == nil || version.GreaterThan(best) {
			best = version
			bestPkg = pkg
		}
	}

	if bestPkg == nil {
		noMatch := zerr.With(domain.ErrNoMatchingVersion, "package", meta.Name)
		return nil, zerr.With(noMatch, "range", requirement)
	}
	return bestPkg, nil
}

func pickDistTag(meta *domain.PackageMetadata, tag string) (*domain.ResolvedPackage, error) {
	version, ok := meta.DistTags[tag]
	if !ok {
		noTag := zerr.With(domain.ErrNoMatchingVersion, "package", meta.Name)
		return nil, zerr.With(noTag, "dist_tag", tag)
	}
	pkg, ok := meta.Versions[version]
	if !ok {
		missing := zerr.With(domain.ErrNoMatchingVersion, "package", meta.Name)
		return nil, zerr.With(missing, "version", version)
	}
	return pkg, nil
}
