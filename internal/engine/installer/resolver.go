package installer

import (
	"context"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// resolve drives the concurrent worklist over the registry. A
// single-flight keyed by (name, range) lets concurrent requests for one
// requirement share a single registry call; a requirement seen again
// after that call finished is resolved again. The graph's own
// (name, version) node set makes each package's dependencies enqueued
// once, which is what terminates cycles.
func (in *Installer) resolve(ctx context.Context, manifest *domain.ProjectManifest, opts InstallOptions) (*domain.ResolvedGraph, domain.InstallSummary, error) {
	ctx, span := in.deps.Tracer.Start(ctx, "Resolving")
	defer span.End()

	state := &resolveState{
		installer: in,
		graph:     domain.NewResolvedGraph(),
		optional:  opts.Optional,
		peers:     in.settings.AutoInstallPeers,
	}
	// No SetLimit here: resolution tasks recursively spawn their
	// children, and a bounded group deadlocks when every worker blocks
	// on spawning. Fan-out is bounded by the metadata memo and the HTTP
	// transport's connection pool instead.
	state.group, state.ctx = errgroup.WithContext(ctx)

	for _, spec := range manifest.DependencySpecs(opts.groups()) {
		state.enqueue(spec, "", true)
	}

	if err := state.group.Wait(); err != nil {
		span.RecordError(err)
		return nil, domain.InstallSummary{}, err
	}
	if err := state.graph.Validate(); err != nil {
		return nil, domain.InstallSummary{}, err
	}

	span.SetAttribute("packages", state.graph.Len())
	return state.graph, domain.InstallSummary{Resolved: state.graph.Len()}, nil
}

type resolveState struct {
	installer *Installer
	group     *errgroup.Group
	ctx       context.Context
	graph     *domain.ResolvedGraph
	flight    singleflight.Group
	optional  bool
	peers     bool
}

// enqueue schedules resolution of one requirement. parentKey is the
// graph node that depends on it, empty for direct dependencies.
func (s *resolveState) enqueue(spec domain.PackageSpec, parentKey string, direct bool) {
	s.group.Go(func() error {
		if err := s.ctx.Err(); err != nil {
			return err
		}

		resolved, err := s.resolveSpec(spec)
		if err != nil {
			return err
		}

		if direct {
			s.graph.SetDirect(resolved.Name, resolved.Version)
		}
		if parentKey != "" {
			s.graph.AddEdge(parentKey, resolved.Name, resolved.Version)
		}

		// First resolution of this exact version owns fan-out to its
		// dependencies; later arrivals only add their edge.
		if !s.graph.AddPackage(resolved) {
			return nil
		}
		s.installer.deps.Reporter.OnResolved(resolved.Name, resolved.Version)

		for _, dep := range resolved.DependencySpecs(s.optional, s.peers) {
			s.enqueue(dep, resolved.Key(), false)
		}
		return nil
	})
}

// resolveSpec collapses concurrent registry resolutions of one
// (name, range); results are not kept after the call returns.
func (s *resolveState) resolveSpec(spec domain.PackageSpec) (*domain.ResolvedPackage, error) {
	result, err, _ := s.flight.Do(spec.String(), func() (any, error) {
		return s.installer.deps.Registry.Resolve(s.ctx, spec)
	})
	if err != nil {
		wrapped := zerr.With(err, "package", spec.Name)
		return nil, zerr.With(wrapped, "range", spec.Range)
	}
	return result.(*domain.ResolvedPackage), nil
}
