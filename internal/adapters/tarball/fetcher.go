// Package tarball downloads package tarballs, verifies their integrity,
// and explodes them into the content-addressed store.
package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
)

// Fetcher implements ports.TarballFetcher. Downloads run on the caller's
// goroutine (the orchestrator's I/O pool); inflate and hashing are
// compute-bound and gated by a CPU-sized semaphore. A per-integrity
// single-flight guard collapses concurrent explosions of one tarball.
type Fetcher struct {
	httpClient *http.Client
	store      ports.CasStore
	logger     ports.Logger
	flight     singleflight.Group
	cpu        chan struct{}
}

// NewFetcher creates a Fetcher writing into store.
func NewFetcher(store ports.CasStore, logger ports.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 64,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		store:  store,
		logger: logger,
		cpu:    make(chan struct{}, runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = hc }
}

// fetchResult carries the explode output through the single-flight call.
type fetchResult struct {
	files  domain.PackageFiles
	reused bool
}

// DownloadAndExplode fetches, verifies, inflates, and stores one tarball.
// When the store already holds this tarball's index, nothing is
// downloaded and the indexed contents are returned (trust the store).
func (f *Fetcher) DownloadAndExplode(ctx context.Context, url string, integrity domain.Integrity) (domain.PackageFiles, bool, error) {
	result, err, _ := f.flight.Do(integrity.String(), func() (any, error) {
		return f.downloadAndExplode(ctx, url, integrity)
	})
	if err != nil {
		return nil, false, err
	}
	res := result.(fetchResult)
	return res.files, res.reused, nil
}

func (f *Fetcher) downloadAndExplode(ctx context.Context, url string, integrity domain.Integrity) (fetchResult, error) {
	if index, err := f.store.ReadIndex(integrity); err == nil && index != nil {
		files, err := filesFromIndex(index)
		if err != nil {
			return fetchResult{}, err
		}
		return fetchResult{files: files, reused: true}, nil
	}

	body, err := f.download(ctx, url)
	if err != nil {
		return fetchResult{}, err
	}

	select {
	case f.cpu <- struct{}{}:
		defer func() { <-f.cpu }()
	case <-ctx.Done():
		return fetchResult{}, ctx.Err()
	}

	ok, err := integrity.Matches(body)
	if err != nil {
		return fetchResult{}, zerr.With(err, "url", url)
	}
	if !ok {
		mismatch := zerr.With(domain.ErrIntegrityMismatch, "url", url)
		return fetchResult{}, zerr.With(mismatch, "expected", integrity.String())
	}

	files, index, err := f.explode(body)
	if err != nil {
		return fetchResult{}, zerr.With(err, "url", url)
	}

	if err := f.store.WriteIndex(integrity, index); err != nil {
		return fetchResult{}, err
	}
	return fetchResult{files: files}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, retriable, err := f.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retriable {
			return nil, err
		}
		lastErr = err

		if attempt < maxAttempts {
			f.logger.Debug("retrying tarball download " + url)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	failed := zerr.With(domain.ErrTarballDownload, "cause", lastErr.Error())
	return nil, zerr.With(failed, "url", url)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, zerr.Wrap(err, domain.ErrTarballDownload.Error())
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, true, zerr.Wrap(err, domain.ErrTarballDownload.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failed := zerr.With(domain.ErrTarballDownload, "status", strconv.Itoa(resp.StatusCode))
		retriable := resp.StatusCode >= 500 ||
			resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests
		return nil, retriable, zerr.With(failed, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, zerr.Wrap(err, domain.ErrTarballDownload.Error())
	}
	return body, false, nil
}

// explode inflates the verified tarball and writes every regular file
// entry into the store. Directories, symlinks, and device nodes are
// ignored. Entry paths lose their leading component: npm tarballs nest
// everything under "package/" (or an arbitrary top directory).
func (f *Fetcher) explode(body []byte) (domain.PackageFiles, *domain.TarballIndex, error) {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, zerr.With(domain.ErrTarballFormat, "cause", err.Error())
	}
	defer func() { _ = gz.Close() }()

	files := make(domain.PackageFiles)
	index := &domain.TarballIndex{Files: make(map[string]domain.TarballIndexEntry)}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, zerr.With(domain.ErrTarballFormat, "cause", err.Error())
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel := stripFirstComponent(hdr.Name)
		if rel == "" {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, zerr.With(domain.ErrTarballFormat, "cause", err.Error())
		}

		executable := hdr.FileInfo().Mode()&0o111 != 0
		hexDigest, err := f.store.WriteFile(content, executable)
		if err != nil {
			return nil, nil, err
		}

		mode := uint32(domain.FilePerm)
		if executable {
			mode = uint32(domain.ExecFilePerm)
		}
		files[rel] = domain.FileEntry{
			Hash:       hexDigest,
			Executable: executable,
			Size:       int64(len(content)),
		}
		index.Files[rel] = domain.TarballIndexEntry{
			Integrity: domain.IntegrityOf(content).String(),
			Mode:      mode,
			Size:      int64(len(content)),
		}
	}

	return files, index, nil
}

// filesFromIndex reconstructs the PackageFiles map of a previously
// exploded tarball without touching the network.
func filesFromIndex(index *domain.TarballIndex) (domain.PackageFiles, error) {
	files := make(domain.PackageFiles, len(index.Files))
	for rel, entry := range index.Files {
		integrity, err := domain.ParseIntegrity(entry.Integrity)
		if err != nil {
			return nil, zerr.With(err, "path", rel)
		}
		files[rel] = domain.FileEntry{
			Hash:       integrity.Hex(),
			Executable: entry.Mode&0o111 != 0,
			Size:       entry.Size,
		}
	}
	return files, nil
}

// stripFirstComponent removes the tarball's top-level directory from an
// entry name.
func stripFirstComponent(name string) string {
	name = strings.TrimPrefix(name, "./")
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return rest
	}
	return ""
}
