package ports

import (
	"context"

	"go.trai.ch/pacquet/internal/core/domain"
)

// TarballFetcher downloads, verifies, and explodes package tarballs into
// the content-addressed store.
//
//go:generate mockgen -source=tarball.go -destination=mocks/mock_tarball.go -package=mocks
type TarballFetcher interface {
	// DownloadAndExplode fetches the tarball at url, verifies it against
	// the expected integrity, inflates it, and writes every regular file
	// entry into the store. When the store already holds the tarball's
	// index, the download is skipped entirely and the index's contents
	// are returned.
	//
	// An integrity mismatch is fatal and never retried; transport
	// failures and 5xx responses are retried with backoff.
	//
	// The boolean reports a store hit: the tarball was not downloaded.
	DownloadAndExplode(ctx context.Context, url string, integrity domain.Integrity) (domain.PackageFiles, bool, error)
}
