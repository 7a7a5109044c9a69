// Package installer orchestrates dependency resolution, tarball
// materialization, and virtual-store projection.
package installer

import (
	"context"
	"path/filepath"
	"sort"
	"sync/atomic"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ioConcurrency bounds the number of in-flight package jobs (HTTP and
// filesystem). Inflate and hashing are separately bounded to the CPU
// count inside the tarball adapter.
const ioConcurrency = 64

// Deps are the collaborators of an Installer.
type Deps struct {
	Registry  ports.RegistryClient
	Tarballs  ports.TarballFetcher
	Importer  ports.PackageImporter
	Manifests ports.ManifestStore
	Lockfiles ports.LockfileLoader
	Executor  ports.ScriptExecutor
	Reporter  ports.Reporter
	Logger    ports.Logger
	Tracer    ports.Tracer
}

// Installer implements the add, install, and run entry points for one
// project against one settings snapshot.
type Installer struct {
	deps     Deps
	settings domain.Settings
}

// New creates an Installer.
func New(deps Deps, settings domain.Settings) *Installer {
	return &Installer{deps: deps, settings: settings}
}

// InstallOptions select what install covers.
type InstallOptions struct {
	// Dev includes devDependencies.
	Dev bool
	// Optional includes optionalDependencies.
	Optional bool
	// FrozenLockfile consumes the lockfile verbatim and forbids
	// resolution.
	FrozenLockfile bool
}

// AddOptions configure the add entry point.
type AddOptions struct {
	Group     domain.DependencyGroup
	SaveExact bool
}

func (o InstallOptions) groups() []domain.DependencyGroup {
	groups := []domain.DependencyGroup{domain.GroupProd}
	if o.Dev {
		groups = append(groups, domain.GroupDev)
	}
	if o.Optional {
		groups = append(groups, domain.GroupOptional)
	}
	return groups
}

// Install installs every declared dependency of the project.
func (in *Installer) Install(ctx context.Context, projectDir string, opts InstallOptions) error {
	manifest, err := in.deps.Manifests.Load(projectDir)
	if err != nil {
		return err
	}

	var graph *domain.ResolvedGraph
	var summary domain.InstallSummary

	if opts.FrozenLockfile {
		graph, summary, err = in.resolveFrozen(ctx, projectDir, manifest, opts)
	} else {
		graph, summary, err = in.resolve(ctx, manifest, opts)
	}
	if err != nil {
		return err
	}

	if err := in.materialize(ctx, projectDir, graph, &summary); err != nil {
		return err
	}
	if err := in.link(ctx, projectDir, graph, &summary); err != nil {
		return err
	}

	in.deps.Reporter.OnSummary(summary)
	return nil
}

// Add resolves one new dependency, persists it into the manifest group,
// and runs a full install.
func (in *Installer) Add(ctx context.Context, projectDir, arg string, opts AddOptions) error {
	spec, err := domain.ParsePackageSpec(arg)
	if err != nil {
		return err
	}
	if opts.Group == "" {
		opts.Group = domain.GroupProd
	}

	if _, err := in.deps.Manifests.EnsureManifest(projectDir); err != nil {
		return err
	}

	resolved, err := in.deps.Registry.Resolve(ctx, spec)
	if err != nil {
		return err
	}

	if err := in.deps.Manifests.AddDependency(projectDir, spec.Name, resolved.SaveSpec(opts.SaveExact), opts.Group); err != nil {
		return err
	}
	in.deps.Logger.Info("added " + spec.Name + "@" + resolved.Version + " to " + string(opts.Group))

	return in.Install(ctx, projectDir, InstallOptions{Dev: true, Optional: true})
}

// RunScript looks up a manifest script and executes it with the
// project's .bin directory on PATH. A missing script succeeds silently
// under ifPresent, fails otherwise.
func (in *Installer) RunScript(ctx context.Context, projectDir, name string, args []string, ifPresent bool) error {
	manifest, err := in.deps.Manifests.Load(projectDir)
	if err != nil {
		return err
	}

	command, ok := manifest.Scripts[name]
	if !ok {
		if ifPresent {
			in.deps.Logger.Debug("script " + name + " not present, skipping")
			return nil
		}
		return zerr.With(domain.ErrScriptMissing, "script", name)
	}

	return in.deps.Executor.RunScript(ctx, ports.ScriptInvocation{
		Dir:          projectDir,
		Name:         name,
		Command:      command,
		Args:         args,
		ExtraPathDir: filepath.Join(projectDir, in.settings.ModulesDir, domain.BinDirName),
	})
}

// materialize imports every resolved package's files from the store into
// its virtual-store directory. Packages race freely; each directory
// appears only once complete.
func (in *Installer) materialize(ctx context.Context, projectDir string, graph *domain.ResolvedGraph, summary *domain.InstallSummary) error {
	ctx, span := in.deps.Tracer.Start(ctx, "Materializing")
	defer span.End()

	virtualStoreDir := filepath.Join(projectDir, in.settings.VirtualStoreDir)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ioConcurrency)

	var downloaded, reusedCount atomic.Int64
	for pkg := range graph.Walk() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, reused, err := in.deps.Tarballs.DownloadAndExplode(ctx, pkg.Tarball, pkg.Integrity)
			if err != nil {
				wrapped := zerr.With(err, "package", pkg.Name)
				return zerr.With(wrapped, "version", pkg.Version)
			}
			if reused {
				reusedCount.Add(1)
			} else {
				downloaded.Add(1)
			}
			in.deps.Reporter.OnFetched(pkg.Name, pkg.Version, reused)

			dir := domain.VirtualPackageDir(virtualStoreDir, pkg.Name, pkg.Version)
			if err := in.deps.Importer.ImportPackage(dir, files); err != nil {
				wrapped := zerr.With(err, "package", pkg.Name)
				return zerr.With(wrapped, "version", pkg.Version)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}

	summary.Downloaded = int(downloaded.Load())
	summary.Reused = int(reusedCount.Load())
	span.SetAttribute("packages", graph.Len())
	return nil
}

// link wires the dependency symlinks: every package's private
// node_modules first, the project's direct entries only after all of
// those exist. A partially installed project never advertises itself as
// ready.
func (in *Installer) link(ctx context.Context, projectDir string, graph *domain.ResolvedGraph, summary *domain.InstallSummary) error {
	ctx, span := in.deps.Tracer.Start(ctx, "Linking")
	defer span.End()

	virtualStoreDir := filepath.Join(projectDir, in.settings.VirtualStoreDir)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ioConcurrency)

	for pkg := range graph.Walk() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nodeModules := domain.VirtualNodeModulesDir(virtualStoreDir, pkg.Name, pkg.Version)
			for depName, depVersion := range graph.Edges(pkg.Key()) {
				link := filepath.Join(nodeModules, depName)
				target := domain.VirtualPackageDir(virtualStoreDir, depName, depVersion)
				if err := in.deps.Importer.LinkPackage(link, target); err != nil {
					return zerr.With(err, "package", pkg.Key())
				}
			}
			in.deps.Reporter.OnLinked(pkg.Name, pkg.Version)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}

	// Direct entries are written last, in deterministic order.
	direct := graph.Direct()
	names := make([]string, 0, len(direct))
	for name := range direct {
		names = append(names, name)
	}
	sort.Strings(names)

	modulesDir := filepath.Join(projectDir, in.settings.ModulesDir)
	for _, name := range names {
		link := filepath.Join(modulesDir, name)
		target := domain.VirtualPackageDir(virtualStoreDir, name, direct[name])
		if err := in.deps.Importer.LinkPackage(link, target); err != nil {
			return zerr.With(err, "package", name)
		}
	}

	summary.Linked = graph.Len()
	return nil
}
