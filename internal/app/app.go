// Package app implements the application layer for pacquet.
package app

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/pacquet/internal/adapters/cas"
	"go.trai.ch/pacquet/internal/adapters/linker"
	"go.trai.ch/pacquet/internal/adapters/registry"
	"go.trai.ch/pacquet/internal/adapters/reporter"
	"go.trai.ch/pacquet/internal/adapters/tarball"
	"go.trai.ch/pacquet/internal/adapters/telemetry"
	"go.trai.ch/pacquet/internal/build"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/pacquet/internal/engine/installer"
	"go.trai.ch/zerr"
)

// SettingsLoader resolves the engine settings for a project directory.
type SettingsLoader interface {
	Load(projectDir string) (domain.Settings, error)
}

// App wires per-invocation engines from long-lived components. Settings
// are project-scoped, so adapters that depend on them (registry, store)
// are constructed per command invocation.
type App struct {
	logger    ports.Logger
	settings  SettingsLoader
	manifests ports.ManifestStore
	lockfiles ports.LockfileLoader
	executor  ports.ScriptExecutor

	outputMode string
	teaOptions []tea.ProgramOption
	reporterFn func() ports.Reporter
}

// New creates an App instance.
func New(
	log ports.Logger,
	settings SettingsLoader,
	manifests ports.ManifestStore,
	lockfiles ports.LockfileLoader,
	executor ports.ScriptExecutor,
) *App {
	return &App{
		logger:    log,
		settings:  settings,
		manifests: manifests,
		lockfiles: lockfiles,
		executor:  executor,
	}
}

// WithOutputMode overrides progress rendering ("auto", "tui", "linear").
func (a *App) WithOutputMode(mode string) *App {
	a.outputMode = mode
	return a
}

// WithTeaOptions adds bubbletea program options. Used for testing.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithReporter replaces progress rendering entirely. Used for testing.
func (a *App) WithReporter(fn func() ports.Reporter) *App {
	a.reporterFn = fn
	return a
}

// InstallOptions mirror the install command flags.
type InstallOptions struct {
	Prod           bool
	NoOptional     bool
	FrozenLockfile bool
}

// AddOptions mirror the add command flags.
type AddOptions struct {
	SaveDev      bool
	SaveOptional bool
	SaveExact    bool
}

// Install installs the declared dependencies of the current project.
func (a *App) Install(ctx context.Context, opts InstallOptions) error {
	return a.withEngine(ctx, func(ctx context.Context, engine *installer.Installer, projectDir string) error {
		return engine.Install(ctx, projectDir, installer.InstallOptions{
			Dev:            !opts.Prod,
			Optional:       !opts.NoOptional,
			FrozenLockfile: opts.FrozenLockfile,
		})
	})
}

// Add resolves one dependency, records it in the manifest, and installs.
func (a *App) Add(ctx context.Context, arg string, opts AddOptions) error {
	group := domain.GroupProd
	if opts.SaveDev {
		group = domain.GroupDev
	} else if opts.SaveOptional {
		group = domain.GroupOptional
	}

	return a.withEngine(ctx, func(ctx context.Context, engine *installer.Installer, projectDir string) error {
		return engine.Add(ctx, projectDir, arg, installer.AddOptions{
			Group:     group,
			SaveExact: opts.SaveExact,
		})
	})
}

// Run executes a manifest script.
func (a *App) Run(ctx context.Context, script string, args []string, ifPresent bool) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "cannot determine working directory")
	}

	settings, err := a.settings.Load(projectDir)
	if err != nil {
		return err
	}

	engine := installer.New(installer.Deps{
		Manifests: a.manifests,
		Executor:  a.executor,
		Logger:    a.logger,
		Tracer:    telemetry.NewOTelTracer("pacquet"),
		Reporter:  reporter.Noop{},
	}, settings)

	return engine.RunScript(ctx, projectDir, script, args, ifPresent)
}

// StorePrune removes every package from the shared store.
func (a *App) StorePrune(ctx context.Context) error {
	_, err := a.withStore(ctx, func(store *cas.Store) error {
		return store.Prune()
	})
	return err
}

// StorePath prints the resolved store location.
func (a *App) StorePath(_ context.Context, w io.Writer) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "cannot determine working directory")
	}
	settings, err := a.settings.Load(projectDir)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, settings.StoreDir.String()+"\n")
	return err
}

// withEngine assembles a full install engine for the current project and
// runs fn inside the telemetry lifecycle.
func (a *App) withEngine(ctx context.Context, fn func(context.Context, *installer.Installer, string) error) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "cannot determine working directory")
	}

	settings, err := a.settings.Load(projectDir)
	if err != nil {
		return err
	}

	store, err := cas.NewStore(settings.StoreDir)
	if err != nil {
		return err
	}

	shutdown := telemetry.Setup(a.logger)
	defer func() { _ = shutdown(context.Background()) }()

	rep := a.newReporter()
	if err := rep.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = rep.Stop() }()

	engine := installer.New(installer.Deps{
		Registry:  registry.NewClient(settings.Registry, "pacquet/"+build.Version, a.logger),
		Tarballs:  tarball.NewFetcher(store, a.logger),
		Importer:  linker.NewImporter(store, a.logger),
		Manifests: a.manifests,
		Lockfiles: a.lockfiles,
		Executor:  a.executor,
		Reporter:  rep,
		Logger:    a.logger,
		Tracer:    telemetry.NewOTelTracer("pacquet"),
	}, settings)

	return fn(ctx, engine, projectDir)
}

// withStore resolves the store for the current project's settings.
func (a *App) withStore(_ context.Context, fn func(*cas.Store) error) (domain.StoreDir, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		return domain.StoreDir{}, zerr.Wrap(err, "cannot determine working directory")
	}
	settings, err := a.settings.Load(projectDir)
	if err != nil {
		return domain.StoreDir{}, err
	}
	store, err := cas.NewStore(settings.StoreDir)
	if err != nil {
		return domain.StoreDir{}, err
	}
	return settings.StoreDir, fn(store)
}

// newReporter picks the progress renderer from the environment and the
// --output-mode flag.
func (a *App) newReporter() ports.Reporter {
	if a.reporterFn != nil {
		return a.reporterFn()
	}

	mode := reporter.ResolveMode(reporter.DetectMode(), a.outputMode)
	if mode == reporter.ModeTUI {
		opts := append([]tea.ProgramOption{tea.WithOutput(os.Stderr)}, a.teaOptions...)
		return reporter.NewTUI(opts...)
	}
	return reporter.NewLinear(os.Stdout)
}
