package installer_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pacquet/internal/adapters/cas"
	"go.trai.ch/pacquet/internal/adapters/linker"
	"go.trai.ch/pacquet/internal/adapters/lockfile"
	"go.trai.ch/pacquet/internal/adapters/manifest"
	"go.trai.ch/pacquet/internal/adapters/registry"
	"go.trai.ch/pacquet/internal/adapters/reporter"
	"go.trai.ch/pacquet/internal/adapters/shell"
	"go.trai.ch/pacquet/internal/adapters/tarball"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/engine/installer"
)

// stubPackage is one publishable package for the stub registry.
type stubPackage struct {
	name    string
	version string
	deps    map[string]string
	files   map[string]string
}

// stubRegistry serves packuments and tarballs for a fixed package set and
// counts requests by kind.
type stubRegistry struct {
	server       *httptest.Server
	packages     []stubPackage
	tarballs     map[string][]byte // name@version -> tgz bytes
	metaRequests atomic.Int32
	tgzRequests  atomic.Int32
	corrupt      map[string]bool // name@version -> serve corrupted bytes
}

func newStubRegistry(t *testing.T, packages ...stubPackage) *stubRegistry {
	t.Helper()

	s := &stubRegistry{
		packages: packages,
		tarballs: make(map[string][]byte),
		corrupt:  make(map[string]bool),
	}
	for _, pkg := range packages {
		s.tarballs[pkg.name+"@"+pkg.version] = makeTgzFromFiles(t, pkg.files)
	}

	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

func makeTgzFromFiles(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for rel, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "package/" + rel,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func (s *stubRegistry) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	// Tarball URLs look like "<name>/-/<base>-<version>.tgz".
	if strings.Contains(path, "/-/") {
		s.tgzRequests.Add(1)
		for key, tgz := range s.tarballs {
			name, version, _ := strings.Cut(key, "@")
			if strings.HasPrefix(path, name+"/-/") && strings.HasSuffix(path, "-"+version+".tgz") {
				if s.corrupt[key] {
					_, _ = w.Write([]byte("garbage bytes, not the advertised tarball"))
					return
				}
				_, _ = w.Write(tgz)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	s.metaRequests.Add(1)
	versions := make(map[string]any)
	distTags := make(map[string]string)
	found := false
	for _, pkg := range s.packages {
		if pkg.name != path {
			continue
		}
		found = true
		tgz := s.tarballs[pkg.name+"@"+pkg.version]
		versions[pkg.version] = map[string]any{
			"name":    pkg.name,
			"version": pkg.version,
			"dist": map[string]any{
				"tarball":   s.server.URL + "/" + pkg.name + "/-/" + pkg.name + "-" + pkg.version + ".tgz",
				"integrity": domain.IntegrityOf(tgz).String(),
			},
			"dependencies": pkg.deps,
		}
		distTags["latest"] = pkg.version
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":      path,
		"dist-tags": distTags,
		"versions":  versions,
	})
}

// env bundles real adapters over a temp store and temp project.
type env struct {
	installer  *installer.Installer
	stub       *stubRegistry
	projectDir string
	storeDir   domain.StoreDir
	store      *cas.Store
	settings   domain.Settings
}

func newEnv(t *testing.T, stub *stubRegistry) *env {
	t.Helper()

	storeDir := domain.NewStoreDir(filepath.Join(t.TempDir(), "store"))
	projectDir := t.TempDir()

	store, err := cas.NewStore(storeDir)
	require.NoError(t, err)

	settings := domain.Settings{
		StoreDir:         storeDir,
		ModulesDir:       "node_modules",
		VirtualStoreDir:  "node_modules/.pnpm",
		Registry:         stub.server.URL + "/",
		AutoInstallPeers: true,
		ImportMethod:     domain.ImportAuto,
	}

	log := nopLogger{}
	deps := installer.Deps{
		Registry:  registry.NewClient(settings.Registry, "pacquet/test", log),
		Tarballs:  tarball.NewFetcher(store, log),
		Importer:  linker.NewImporter(store, log),
		Manifests: manifest.NewStore(),
		Lockfiles: lockfile.NewLoader(),
		Executor:  shell.NewExecutor(log),
		Reporter:  reporter.Noop{},
		Logger:    log,
		Tracer:    nopTracer{},
	}

	return &env{
		installer:  installer.New(deps, settings),
		stub:       stub,
		projectDir: projectDir,
		storeDir:   storeDir,
		store:      store,
		settings:   settings,
	}
}

// newInstaller rebuilds the engine with fresh in-memory caches over the
// same store and project, simulating a second process.
func (e *env) newInstaller(t *testing.T) *installer.Installer {
	t.Helper()
	log := nopLogger{}
	deps := installer.Deps{
		Registry:  registry.NewClient(e.settings.Registry, "pacquet/test", log),
		Tarballs:  tarball.NewFetcher(e.store, log),
		Importer:  linker.NewImporter(e.store, log),
		Manifests: manifest.NewStore(),
		Lockfiles: lockfile.NewLoader(),
		Executor:  shell.NewExecutor(log),
		Reporter:  reporter.Noop{},
		Logger:    log,
		Tracer:    nopTracer{},
	}
	return installer.New(deps, e.settings)
}

func (e *env) writeManifest(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.projectDir, "package.json"), []byte(content), 0o644))
}

func isOddFixture(t *testing.T) *stubRegistry {
	return newStubRegistry(t,
		stubPackage{
			name: "is-odd", version: "3.0.1",
			deps:  map[string]string{"is-number": "^6.0.0"},
			files: map[string]string{"package.json": `{"name":"is-odd","version":"3.0.1"}`, "index.js": "module.exports = require('is-number')\n"},
		},
		stubPackage{
			name: "is-number", version: "6.0.0",
			files: map[string]string{"package.json": `{"name":"is-number","version":"6.0.0"}`, "index.js": "module.exports = n => !isNaN(n)\n"},
		},
	)
}

func TestFreshInstall(t *testing.T) {
	t.Parallel()

	e := newEnv(t, isOddFixture(t))
	e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)

	require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{}))

	nm := filepath.Join(e.projectDir, "node_modules")

	// The direct dependency is a symlink at the project root.
	info, err := os.Lstat(filepath.Join(nm, "is-odd"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	// The virtual store holds the extracted tree.
	_, err = os.Stat(filepath.Join(nm, ".pnpm", "is-odd@3.0.1", "node_modules", "is-odd", "package.json"))
	require.NoError(t, err)

	// The transitive dep is visible inside is-odd's private node_modules…
	resolvedDep, err := filepath.EvalSymlinks(filepath.Join(nm, ".pnpm", "is-odd@3.0.1", "node_modules", "is-number"))
	require.NoError(t, err)
	depManifest, err := os.ReadFile(filepath.Join(resolvedDep, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(depManifest), `"is-number"`)
	assert.Contains(t, string(depManifest), `"6.0.0"`)

	// …but not at the project root: it is not a direct dependency.
	_, err = os.Lstat(filepath.Join(nm, "is-number"))
	assert.True(t, os.IsNotExist(err))
}

func TestEveryStoreFileMatchesItsDigest(t *testing.T) {
	t.Parallel()

	e := newEnv(t, isOddFixture(t))
	e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)
	require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{}))

	filesDir := e.storeDir.FilesDir()
	count := 0
	err := filepath.WalkDir(filesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		if strings.HasSuffix(name, "-index.json") {
			return nil
		}
		hexDigest := filepath.Base(filepath.Dir(path)) + strings.TrimSuffix(name, "-exec")
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		assert.Equal(t, hexDigest, domain.IntegrityOf(content).Hex(), path)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.NotZero(t, count)
}

func TestReinstallIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newEnv(t, isOddFixture(t))
	e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)

	require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{}))
	tgzAfterFirst := e.stub.tgzRequests.Load()

	mtimeBefore := dirMtimes(t, filepath.Join(e.projectDir, "node_modules"))

	// A second engine (fresh memo caches) over the same store and
	// project: no tarball downloads, no file rewrites.
	second := e.newInstaller(t)
	require.NoError(t, second.Install(context.Background(), e.projectDir, installer.InstallOptions{}))

	assert.Equal(t, tgzAfterFirst, e.stub.tgzRequests.Load(), "no tarball refetched")
	assert.Equal(t, mtimeBefore, dirMtimes(t, filepath.Join(e.projectDir, "node_modules")))
}

func dirMtimes(t *testing.T, root string) map[string]int64 {
	t.Helper()
	mtimes := make(map[string]int64)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink != 0 || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mtimes[path] = info.ModTime().UnixNano()
		return nil
	})
	require.NoError(t, err)
	return mtimes
}

func TestTwoProjectsShareTheStore(t *testing.T) {
	t.Parallel()

	stub := isOddFixture(t)
	first := newEnv(t, stub)
	first.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)
	require.NoError(t, first.installer.Install(context.Background(), first.projectDir, installer.InstallOptions{}))
	tgzAfterFirst := stub.tgzRequests.Load()

	second := newEnv(t, stub)
	// Same store root as the first project.
	second.settings.StoreDir = first.storeDir
	store, err := cas.NewStore(first.storeDir)
	require.NoError(t, err)
	second.store = store
	engine := second.newInstaller(t)

	second.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)
	require.NoError(t, engine.Install(context.Background(), second.projectDir, installer.InstallOptions{}))

	assert.Equal(t, tgzAfterFirst, stub.tgzRequests.Load(), "second project reuses the CAS")
}

func TestIntegrityMismatchLeavesOthersIntact(t *testing.T) {
	t.Parallel()

	stub := newStubRegistry(t,
		stubPackage{
			name: "good-pkg", version: "1.0.0",
			files: map[string]string{"package.json": `{"name":"good-pkg","version":"1.0.0"}`},
		},
		stubPackage{
			name: "evil-pkg", version: "1.0.0",
			files: map[string]string{"package.json": `{"name":"evil-pkg","version":"1.0.0"}`},
		},
	)
	stub.corrupt["evil-pkg@1.0.0"] = true

	e := newEnv(t, stub)
	e.writeManifest(t, `{"dependencies": {"good-pkg": "1.0.0", "evil-pkg": "1.0.0"}}`)

	err := e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrIntegrityMismatch)

	// Nothing of the corrupted package reached the virtual store.
	_, statErr := os.Stat(filepath.Join(e.projectDir, "node_modules", ".pnpm", "evil-pkg@1.0.0"))
	assert.True(t, os.IsNotExist(statErr))

	// No direct links were advertised for a partial install.
	_, statErr = os.Lstat(filepath.Join(e.projectDir, "node_modules", "evil-pkg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAddDefault(t *testing.T) {
	t.Parallel()

	stub := newStubRegistry(t, stubPackage{
		name: "fastify", version: "4.2.0",
		files: map[string]string{"package.json": `{"name":"fastify","version":"4.2.0"}`},
	})
	e := newEnv(t, stub)
	e.writeManifest(t, `{
  "name": "my-app",
  "version": "0.1.0"
}`)

	require.NoError(t, e.installer.Add(context.Background(), e.projectDir, "fastify", installer.AddOptions{}))

	data, err := os.ReadFile(filepath.Join(e.projectDir, "package.json"))
	require.NoError(t, err)
	written := string(data)

	assert.Contains(t, written, `"fastify": "^4.2.0"`)
	assert.Less(t, strings.Index(written, `"name"`), strings.Index(written, `"version"`),
		"key order preserved")

	info, err := os.Lstat(filepath.Join(e.projectDir, "node_modules", "fastify"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestAddSaveDevSaveExact(t *testing.T) {
	t.Parallel()

	stub := newStubRegistry(t, stubPackage{
		name: "typescript", version: "5.1.6",
		files: map[string]string{"package.json": `{"name":"typescript","version":"5.1.6"}`},
	})
	e := newEnv(t, stub)
	e.writeManifest(t, `{"name": "my-app"}`)

	require.NoError(t, e.installer.Add(context.Background(), e.projectDir, "typescript", installer.AddOptions{
		Group:     domain.GroupDev,
		SaveExact: true,
	}))

	data, err := os.ReadFile(filepath.Join(e.projectDir, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"typescript": "5.1.6"`)
	assert.NotContains(t, string(data), `"^5.1.6"`)
}

func TestFrozenLockfileZeroMetadataRequests(t *testing.T) {
	t.Parallel()

	stub := isOddFixture(t)
	e := newEnv(t, stub)
	e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)

	isOddTgz := stub.tarballs["is-odd@3.0.1"]
	isNumberTgz := stub.tarballs["is-number@6.0.0"]
	lock := fmt.Sprintf(`lockfileVersion: '6.0'
dependencies:
  is-odd:
    specifier: ^3.0.0
    version: 3.0.1
packages:
  /is-odd@3.0.1:
    resolution: {integrity: %s}
    dependencies:
      is-number: 6.0.0
  /is-number@6.0.0:
    resolution: {integrity: %s}
`, domain.IntegrityOf(isOddTgz).String(), domain.IntegrityOf(isNumberTgz).String())
	require.NoError(t, os.WriteFile(filepath.Join(e.projectDir, "pnpm-lock.yaml"), []byte(lock), 0o644))

	require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{FrozenLockfile: true}))

	assert.Zero(t, stub.metaRequests.Load(), "frozen mode never fetches metadata")
	assert.Equal(t, int32(2), stub.tgzRequests.Load(), "only tarball GETs for CAS misses")

	// The projected tree is complete.
	_, err := os.Stat(filepath.Join(e.projectDir, "node_modules", ".pnpm", "is-odd@3.0.1", "node_modules", "is-number"))
	require.NoError(t, err)
}

func TestFrozenLockfileStaleAbortsBeforeNetwork(t *testing.T) {
	t.Parallel()

	stub := isOddFixture(t)
	e := newEnv(t, stub)

	// Manifest declares a range the lockfile does not record.
	e.writeManifest(t, `{"dependencies": {"left-pad": "^1.2.0"}}`)
	lock := `lockfileVersion: '6.0'
dependencies:
  left-pad:
    specifier: ^1.3.0
    version: 1.3.0
packages:
  /left-pad@1.3.0:
    resolution: {integrity: sha512-XI5MPzVNApjAyhQzphX8BkmKsKUxD4LdyK24iZeQGinBN9yTQT3bFlCBy/aVx2HrNcqQGsdot8yNFjcz4l6XLQ==}
`
	require.NoError(t, os.WriteFile(filepath.Join(e.projectDir, "pnpm-lock.yaml"), []byte(lock), 0o644))

	err := e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{FrozenLockfile: true})
	require.ErrorIs(t, err, domain.ErrFrozenLockfileStale)

	assert.Zero(t, stub.metaRequests.Load())
	assert.Zero(t, stub.tgzRequests.Load())
}

func TestPruneThenReinstallReconstructs(t *testing.T) {
	t.Parallel()

	e := newEnv(t, isOddFixture(t))
	e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)

	require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{}))
	require.NoError(t, e.store.Prune())

	// The store is empty; a fresh project install rebuilds everything.
	fresh := newEnv(t, e.stub)
	fresh.settings.StoreDir = e.storeDir
	store, err := cas.NewStore(e.storeDir)
	require.NoError(t, err)
	fresh.store = store
	engine := fresh.newInstaller(t)

	fresh.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)
	require.NoError(t, engine.Install(context.Background(), fresh.projectDir, installer.InstallOptions{}))

	_, err = os.Stat(filepath.Join(fresh.projectDir, "node_modules", ".pnpm", "is-odd@3.0.1", "node_modules", "is-odd", "index.js"))
	require.NoError(t, err)
}

func TestDeterministicTrees(t *testing.T) {
	t.Parallel()

	stub := isOddFixture(t)

	treeOf := func(t *testing.T) map[string]string {
		e := newEnv(t, stub)
		e.writeManifest(t, `{"dependencies": {"is-odd": "^3.0.0"}}`)
		require.NoError(t, e.installer.Install(context.Background(), e.projectDir, installer.InstallOptions{}))

		tree := make(map[string]string)
		root := filepath.Join(e.projectDir, "node_modules")
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			switch {
			case d.Type()&os.ModeSymlink != 0:
				target, err := os.Readlink(path)
				if err != nil {
					return err
				}
				tree[rel] = "link:" + target
			case d.IsDir():
				tree[rel] = "dir"
			default:
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				tree[rel] = "file:" + domain.IntegrityOf(content).Hex()
			}
			return nil
		})
		require.NoError(t, err)
		return tree
	}

	assert.Equal(t, treeOf(t), treeOf(t), "two installs of one manifest produce identical trees")
}
