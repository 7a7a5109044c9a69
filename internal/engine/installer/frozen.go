package installer

import (
	"context"
	"net/url"
	"strings"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
)

// resolveFrozen consumes the lockfile's pre-resolved graph. The registry
// is never consulted; a lockfile that is absent or disagrees with the
// manifest aborts before any network call or on-disk mutation.
func (in *Installer) resolveFrozen(ctx context.Context, projectDir string, manifest *domain.ProjectManifest, opts InstallOptions) (*domain.ResolvedGraph, domain.InstallSummary, error) {
	_, span := in.deps.Tracer.Start(ctx, "Loading lockfile")
	defer span.End()

	lf, err := in.deps.Lockfiles.Load(projectDir)
	if err != nil {
		return nil, domain.InstallSummary{}, err
	}
	if lf == nil {
		return nil, domain.InstallSummary{}, zerr.With(domain.ErrLockfileMissing, "path", projectDir)
	}

	if err := checkLockfileFresh(manifest, lf, opts.groups()); err != nil {
		span.RecordError(err)
		return nil, domain.InstallSummary{}, err
	}

	graph, err := in.graphFromLockfile(lf, opts)
	if err != nil {
		return nil, domain.InstallSummary{}, err
	}

	for _, spec := range directFromLockfile(lf, opts.groups()) {
		graph.SetDirect(spec.Name, spec.Range)
	}

	if err := graph.Validate(); err != nil {
		return nil, domain.InstallSummary{}, zerr.With(domain.ErrFrozenLockfileStale, "cause", err.Error())
	}

	for pkg := range graph.Walk() {
		in.deps.Reporter.OnResolved(pkg.Name, pkg.Version)
	}
	span.SetAttribute("packages", graph.Len())
	return graph, domain.InstallSummary{Resolved: graph.Len()}, nil
}

// checkLockfileFresh verifies every declared direct dependency of the
// selected groups has a matching importer entry.
func checkLockfileFresh(manifest *domain.ProjectManifest, lf *domain.Lockfile, groups []domain.DependencyGroup) error {
	for _, group := range groups {
		declared := manifest.Group(group)
		locked := lf.Importer.Group(group)
		for name, rng := range declared {
			entry, ok := locked[name]
			if !ok {
				stale := zerr.With(domain.ErrFrozenLockfileStale, "package", name)
				return zerr.With(stale, "group", string(group))
			}
			if entry.Specifier != rng {
				stale := zerr.With(domain.ErrFrozenLockfileStale, "package", name)
				stale = zerr.With(stale, "manifest_spec", rng)
				return zerr.With(stale, "lockfile_spec", entry.Specifier)
			}
		}
	}
	return nil
}

// graphFromLockfile converts the packages map into graph nodes with
// exact-version edges.
func (in *Installer) graphFromLockfile(lf *domain.Lockfile, opts InstallOptions) (*domain.ResolvedGraph, error) {
	graph := domain.NewResolvedGraph()

	for key, snapshot := range lf.Packages {
		host, name, version, err := domain.ParseDependencyPath(key)
		if err != nil {
			return nil, err
		}

		integrity, err := domain.ParseIntegrity(snapshot.Resolution.Integrity)
		if err != nil {
			wrapped := zerr.With(err, "package", name)
			return nil, zerr.With(wrapped, "version", version)
		}

		tarballURL := snapshot.Resolution.Tarball
		if tarballURL == "" {
			tarballURL = in.defaultTarballURL(host, name, version)
		}

		pkg := &domain.ResolvedPackage{
			Name:      name,
			Version:   version,
			Tarball:   tarballURL,
			Integrity: integrity,
		}
		graph.AddPackage(pkg)

		for depName, depVersion := range snapshot.Dependencies {
			graph.AddEdge(pkg.Key(), depName, trimPeerSuffix(depVersion))
		}
		if opts.Optional {
			for depName, depVersion := range snapshot.OptionalDependencies {
				graph.AddEdge(pkg.Key(), depName, trimPeerSuffix(depVersion))
			}
		}
	}

	return graph, nil
}

// directFromLockfile lists the importer's direct dependencies for the
// selected groups.
func directFromLockfile(lf *domain.Lockfile, groups []domain.DependencyGroup) []domain.PackageSpec {
	var specs []domain.PackageSpec
	for _, group := range groups {
		for name, entry := range lf.Importer.Group(group) {
			specs = append(specs, domain.PackageSpec{Name: name, Range: trimPeerSuffix(entry.Version)})
		}
	}
	return specs
}

// defaultTarballURL derives the conventional registry tarball location:
// "<registry>/<name>/-/<basename>-<version>.tgz".
func (in *Installer) defaultTarballURL(host, name, version string) string {
	registry := in.settings.Registry
	if host != "" {
		registry = "https://" + host + "/"
	}

	base := name
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		base = name[idx+1:]
	}
	return registry + name + "/-/" + url.PathEscape(base+"-"+version+".tgz")
}

// trimPeerSuffix drops the peer-qualification suffix of a locked
// version, e.g. "10.9.1(@types/node@18.7.19)" -> "10.9.1".
func trimPeerSuffix(version string) string {
	if idx := strings.IndexByte(version, '('); idx >= 0 {
		return version[:idx]
	}
	return version
}
