// Package registry implements the RegistryClient port against an
// npm-compatible HTTP registry.
package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond

	// acceptHeader asks for the abbreviated packument, which omits
	// readmes and keeps responses small.
	acceptHeader = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"
)

// Client fetches and caches package metadata. The cache is per-process
// and lives only for one install run; a per-name single-flight guard
// ensures at most one GET per package name is ever in flight.
type Client struct {
	httpClient *http.Client
	registry   string
	userAgent  string

	// authHeader is sent verbatim as Authorization when non-empty. The
	// engine never populates it; callers with registry credentials can.
	authHeader string

	cache  sync.Map // name -> *domain.PackageMetadata
	flight singleflight.Group
	logger ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthHeader sets the Authorization header value for every request.
func WithAuthHeader(value string) Option {
	return func(c *Client) { c.authHeader = value }
}

// NewClient creates a Client for the given registry base URL. The URL is
// normalized to carry a trailing slash.
func NewClient(registryURL, userAgent string, logger ports.Logger, opts ...Option) *Client {
	if !strings.HasSuffix(registryURL, "/") {
		registryURL += "/"
	}
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 64,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		registry:  registryURL,
		userAgent: userAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPackage returns the metadata of every published version of name,
// memoized per name.
func (c *Client) FetchPackage(ctx context.Context, name string) (*domain.PackageMetadata, error) {
	if cached, ok := c.cache.Load(name); ok {
		return cached.(*domain.PackageMetadata), nil
	}

	result, err, _ := c.flight.Do(name, func() (any, error) {
		if cached, ok := c.cache.Load(name); ok {
			return cached, nil
		}
		meta, err := c.fetchPackument(ctx, name)
		if err != nil {
			return nil, err
		}
		c.cache.Store(name, meta)
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.PackageMetadata), nil
}

// Resolve fetches metadata and picks the version satisfying spec.
func (c *Client) Resolve(ctx context.Context, spec domain.PackageSpec) (*domain.ResolvedPackage, error) {
	meta, err := c.FetchPackage(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	return PickVersion(meta, spec.Range)
}

func (c *Client) fetchPackument(ctx context.Context, name string) (*domain.PackageMetadata, error) {
	// Scoped names keep their "@" but escape the inner slash.
	url := c.registry + strings.ReplaceAll(name, "/", "%2F")

	body, err := c.getWithRetry(ctx, url, name)
	if err != nil {
		return nil, err
	}

	var doc packumentDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		wrapped := zerr.With(domain.ErrRegistryRequest, "cause", err.Error())
		wrapped = zerr.With(wrapped, "package", name)
		return nil, zerr.With(wrapped, "url", url)
	}

	return convertPackument(name, &doc)
}

func (c *Client) getWithRetry(ctx context.Context, url, name string) ([]byte, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, retriable, err := c.get(ctx, url, name)
		if err == nil {
			return body, nil
		}
		if !retriable {
			return nil, err
		}
		lastErr = err

		if attempt < maxAttempts {
			c.logger.Debug("retrying registry request for " + name)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	unavailable := zerr.With(domain.ErrRegistryUnavailable, "cause", lastErr.Error())
	unavailable = zerr.With(unavailable, "package", name)
	return nil, zerr.With(unavailable, "url", url)
}

// get performs a single GET. The second return reports whether the
// failure is retriable.
func (c *Client) get(ctx context.Context, url, name string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, zerr.Wrap(err, domain.ErrRegistryRequest.Error())
	}
	req.Header.Set("user-agent", c.userAgent)
	req.Header.Set("accept", acceptHeader)
	if c.authHeader != "" {
		req.Header.Set("authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, zerr.Wrap(err, domain.ErrRegistryRequest.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, zerr.Wrap(err, domain.ErrRegistryRequest.Error())
		}
		return body, false, nil

	case resp.StatusCode == http.StatusNotFound:
		notFound := zerr.With(domain.ErrPackageNotFound, "package", name)
		return nil, false, zerr.With(notFound, "url", url)

	case resp.StatusCode >= 500,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests:
		retriable := zerr.With(domain.ErrRegistryRequest, "status", strconv.Itoa(resp.StatusCode))
		return nil, true, zerr.With(retriable, "url", url)

	default:
		permanent := zerr.With(domain.ErrRegistryRequest, "status", strconv.Itoa(resp.StatusCode))
		permanent = zerr.With(permanent, "package", name)
		return nil, false, zerr.With(permanent, "url", url)
	}
}

// convertPackument maps the wire document onto domain types. Versions
// without any verifiable digest are dropped; a legacy hex shasum counts
// as sha1 integrity.
func convertPackument(name string, doc *packumentDoc) (*domain.PackageMetadata, error) {
	meta := &domain.PackageMetadata{
		Name:     name,
		DistTags: doc.DistTags,
		Versions: make(map[string]*domain.ResolvedPackage, len(doc.Versions)),
	}

	for version, pv := range doc.Versions {
		var integrity domain.Integrity
		var err error
		switch {
		case pv.Dist.Integrity != "":
			integrity, err = domain.ParseIntegrity(pv.Dist.Integrity)
		case pv.Dist.Shasum != "":
			integrity, err = domain.IntegrityFromHex("sha1", pv.Dist.Shasum)
		default:
			continue
		}
		if err != nil {
			wrapped := zerr.With(err, "package", name)
			return nil, zerr.With(wrapped, "version", version)
		}

		meta.Versions[version] = &domain.ResolvedPackage{
			Name:                 name,
			Version:              version,
			Tarball:              pv.Dist.Tarball,
			Integrity:            integrity,
			Dependencies:         pv.Dependencies,
			OptionalDependencies: pv.OptionalDependencies,
			PeerDependencies:     pv.PeerDependencies,
		}
	}

	return meta, nil
}
