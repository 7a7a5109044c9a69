package installer_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pacquet/internal/adapters/reporter"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/pacquet/internal/core/ports/mocks"
	"go.trai.ch/pacquet/internal/engine/installer"
	"go.uber.org/mock/gomock"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End()                     {}
func (nopSpan) RecordError(error)        {}
func (nopSpan) SetAttribute(string, any) {}

type fixture struct {
	ctrl      *gomock.Controller
	registry  *mocks.MockRegistryClient
	tarballs  *mocks.MockTarballFetcher
	importer  *mocks.MockPackageImporter
	manifests *mocks.MockManifestStore
	lockfiles *mocks.MockLockfileLoader
	executor  *mocks.MockScriptExecutor
	settings  domain.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &fixture{
		ctrl:      ctrl,
		registry:  mocks.NewMockRegistryClient(ctrl),
		tarballs:  mocks.NewMockTarballFetcher(ctrl),
		importer:  mocks.NewMockPackageImporter(ctrl),
		manifests: mocks.NewMockManifestStore(ctrl),
		lockfiles: mocks.NewMockLockfileLoader(ctrl),
		executor:  mocks.NewMockScriptExecutor(ctrl),
		settings: domain.Settings{
			StoreDir:         domain.NewStoreDir("/store"),
			ModulesDir:       "node_modules",
			VirtualStoreDir:  "node_modules/.pnpm",
			Registry:         "https://registry.example.com/",
			AutoInstallPeers: true,
			ImportMethod:     domain.ImportAuto,
		},
	}
}

func (f *fixture) installer() *installer.Installer {
	return installer.New(installer.Deps{
		Registry:  f.registry,
		Tarballs:  f.tarballs,
		Importer:  f.importer,
		Manifests: f.manifests,
		Lockfiles: f.lockfiles,
		Executor:  f.executor,
		Reporter:  reporter.Noop{},
		Logger:    nopLogger{},
		Tracer:    nopTracer{},
	}, f.settings)
}

func resolved(name, version string, deps map[string]string) *domain.ResolvedPackage {
	return &domain.ResolvedPackage{
		Name:         name,
		Version:      version,
		Tarball:      "https://registry.example.com/" + name + "/-/" + name + "-" + version + ".tgz",
		Integrity:    domain.IntegrityOf([]byte(name + "@" + version)),
		Dependencies: deps,
	}
}

func TestInstallResolvesTransitively(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Name:         "app",
		Dependencies: map[string]string{"is-odd": "^3.0.0"},
	}, nil)

	isOdd := resolved("is-odd", "3.0.1", map[string]string{"is-number": "^6.0.0"})
	isNumber := resolved("is-number", "6.0.0", nil)

	f.registry.EXPECT().
		Resolve(gomock.Any(), domain.PackageSpec{Name: "is-odd", Range: "^3.0.0"}).
		Return(isOdd, nil)
	f.registry.EXPECT().
		Resolve(gomock.Any(), domain.PackageSpec{Name: "is-number", Range: "^6.0.0"}).
		Return(isNumber, nil)

	files := domain.PackageFiles{"package.json": {Hash: "aa"}}
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), isOdd.Tarball, isOdd.Integrity).Return(files, false, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), isNumber.Tarball, isNumber.Integrity).Return(files, false, nil)

	vsd := "/project/node_modules/.pnpm"
	f.importer.EXPECT().ImportPackage(filepath.Join(vsd, "is-odd@3.0.1/node_modules/is-odd"), files).Return(nil)
	f.importer.EXPECT().ImportPackage(filepath.Join(vsd, "is-number@6.0.0/node_modules/is-number"), files).Return(nil)

	// is-odd's private node_modules gains a link to is-number.
	f.importer.EXPECT().LinkPackage(
		filepath.Join(vsd, "is-odd@3.0.1/node_modules/is-number"),
		filepath.Join(vsd, "is-number@6.0.0/node_modules/is-number"),
	).Return(nil)

	// Only the direct dependency appears at the project root.
	f.importer.EXPECT().LinkPackage(
		"/project/node_modules/is-odd",
		filepath.Join(vsd, "is-odd@3.0.1/node_modules/is-odd"),
	).Return(nil)

	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{})
	require.NoError(t, err)
}

func TestInstallDeduplicatesSharedDependencies(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"a": "1.0.0", "b": "1.0.0"},
	}, nil)

	shared := resolved("shared", "2.0.0", nil)
	a := resolved("a", "1.0.0", map[string]string{"shared": "^2.0.0"})
	b := resolved("b", "1.0.0", map[string]string{"shared": "^2.0.0"})

	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "a", Range: "1.0.0"}).Return(a, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "b", Range: "1.0.0"}).Return(b, nil)
	// Both depend on the same range; concurrent lookups share one call,
	// sequential ones may repeat it.
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "shared", Range: "^2.0.0"}).
		Return(shared, nil).MinTimes(1).MaxTimes(2)

	files := domain.PackageFiles{}
	// Exactly one explode per (name, version).
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), a.Tarball, a.Integrity).Return(files, false, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), b.Tarball, b.Integrity).Return(files, false, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), shared.Tarball, shared.Integrity).Return(files, false, nil)

	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil).Times(4)

	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{})
	require.NoError(t, err)
}

func TestInstallCyclicGraphTerminates(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"a": "1.0.0"},
	}, nil)

	a := resolved("a", "1.0.0", map[string]string{"b": "1.0.0"})
	b := resolved("b", "1.0.0", map[string]string{"a": "1.0.0"})

	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "a", Range: "1.0.0"}).
		Return(a, nil).MinTimes(1)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "b", Range: "1.0.0"}).
		Return(b, nil).MinTimes(1)

	files := domain.PackageFiles{}
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), a.Tarball, a.Integrity).Return(files, false, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), b.Tarball, b.Integrity).Return(files, false, nil)

	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{})
	require.NoError(t, err)
}

func TestInstallResolutionErrorAborts(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"ghost": "^1.0.0"},
	}, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrNoMatchingVersion)

	// No materialization, no linking.
	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrNoMatchingVersion)
}

func TestInstallDevGroupSelection(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{"typescript": "5.1.6"},
	}, nil).Times(2)

	// Without Dev, nothing resolves.
	require.NoError(t, f.installer().Install(context.Background(), "/project", installer.InstallOptions{}))

	// With Dev, typescript installs.
	ts := resolved("typescript", "5.1.6", nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "typescript", Range: "5.1.6"}).Return(ts, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), ts.Tarball, ts.Integrity).Return(domain.PackageFiles{}, true, nil)
	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.installer().Install(context.Background(), "/project", installer.InstallOptions{Dev: true}))
}

func TestAddWritesManifestThenInstalls(t *testing.T) {
	f := newFixture(t)

	fastify := resolved("fastify", "4.2.0", nil)

	f.manifests.EXPECT().EnsureManifest("/project").Return(&domain.ProjectManifest{Name: "app"}, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "fastify"}).Return(fastify, nil)
	f.manifests.EXPECT().AddDependency("/project", "fastify", "^4.2.0", domain.GroupProd).Return(nil)

	// The follow-up install re-reads the updated manifest.
	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"fastify": "^4.2.0"},
	}, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "fastify", Range: "^4.2.0"}).Return(fastify, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), fastify.Tarball, fastify.Integrity).Return(domain.PackageFiles{}, false, nil)
	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil)

	err := f.installer().Add(context.Background(), "/project", "fastify", installer.AddOptions{})
	require.NoError(t, err)
}

func TestAddSaveExact(t *testing.T) {
	f := newFixture(t)

	ts := resolved("typescript", "5.1.6", nil)

	f.manifests.EXPECT().EnsureManifest("/project").Return(&domain.ProjectManifest{}, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "typescript"}).Return(ts, nil)
	f.manifests.EXPECT().AddDependency("/project", "typescript", "5.1.6", domain.GroupDev).Return(nil)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		DevDependencies: map[string]string{"typescript": "5.1.6"},
	}, nil)
	f.registry.EXPECT().Resolve(gomock.Any(), domain.PackageSpec{Name: "typescript", Range: "5.1.6"}).Return(ts, nil)
	f.tarballs.EXPECT().DownloadAndExplode(gomock.Any(), ts.Tarball, ts.Integrity).Return(domain.PackageFiles{}, false, nil)
	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil)

	err := f.installer().Add(context.Background(), "/project", "typescript", installer.AddOptions{
		Group:     domain.GroupDev,
		SaveExact: true,
	})
	require.NoError(t, err)
}

func TestFrozenStaleManifestMismatch(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"left-pad": "^1.2.0"},
	}, nil)
	f.lockfiles.EXPECT().Load("/project").Return(&domain.Lockfile{
		Version:  "6.0",
		Importer: domain.ProjectSnapshot{},
		Packages: map[string]domain.PackageSnapshot{},
	}, nil)

	// The registry and tarball mocks have no expectations: frozen-stale
	// aborts before any network call.
	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{FrozenLockfile: true})
	require.ErrorIs(t, err, domain.ErrFrozenLockfileStale)
}

func TestFrozenMissingLockfile(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{}, nil)
	f.lockfiles.EXPECT().Load("/project").Return(nil, nil)

	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{FrozenLockfile: true})
	require.ErrorIs(t, err, domain.ErrLockfileMissing)
}

func TestFrozenInstallSkipsRegistry(t *testing.T) {
	f := newFixture(t)

	integrity := domain.IntegrityOf([]byte("left-pad tarball"))
	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Dependencies: map[string]string{"left-pad": "^1.3.0"},
	}, nil)
	f.lockfiles.EXPECT().Load("/project").Return(&domain.Lockfile{
		Version: "6.0",
		Importer: domain.ProjectSnapshot{
			Dependencies: map[string]domain.LockedDependency{
				"left-pad": {Specifier: "^1.3.0", Version: "1.3.0"},
			},
		},
		Packages: map[string]domain.PackageSnapshot{
			"/left-pad@1.3.0": {
				Resolution: domain.LockfileResolution{Integrity: integrity.String()},
			},
		},
	}, nil)

	f.tarballs.EXPECT().
		DownloadAndExplode(gomock.Any(), "https://registry.example.com/left-pad/-/left-pad-1.3.0.tgz", integrity).
		Return(domain.PackageFiles{}, false, nil)
	f.importer.EXPECT().ImportPackage(gomock.Any(), gomock.Any()).Return(nil)
	f.importer.EXPECT().LinkPackage(gomock.Any(), gomock.Any()).Return(nil)

	err := f.installer().Install(context.Background(), "/project", installer.InstallOptions{FrozenLockfile: true})
	require.NoError(t, err)
}

func TestRunScript(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Scripts: map[string]string{"build": "tsc -p ."},
	}, nil)
	f.executor.EXPECT().RunScript(gomock.Any(), ports.ScriptInvocation{
		Dir:          "/project",
		Name:         "build",
		Command:      "tsc -p .",
		ExtraPathDir: filepath.Join("/project", "node_modules", ".bin"),
	}).Return(nil)

	err := f.installer().RunScript(context.Background(), "/project", "build", nil, false)
	require.NoError(t, err)
}

func TestRunScriptMissing(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{}, nil).Times(2)

	err := f.installer().RunScript(context.Background(), "/project", "build", nil, false)
	require.ErrorIs(t, err, domain.ErrScriptMissing)

	// --if-present succeeds silently.
	err = f.installer().RunScript(context.Background(), "/project", "build", nil, true)
	require.NoError(t, err)
}

func TestRunScriptPropagatesExitCode(t *testing.T) {
	f := newFixture(t)

	f.manifests.EXPECT().Load("/project").Return(&domain.ProjectManifest{
		Scripts: map[string]string{"test": "exit 3"},
	}, nil)
	f.executor.EXPECT().RunScript(gomock.Any(), gomock.Any()).
		Return(&domain.ScriptError{Script: "test", ExitCode: 3})

	err := f.installer().RunScript(context.Background(), "/project", "test", nil, false)

	var scriptErr *domain.ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, 3, scriptErr.ExitCode)
}
