// Package npmrc loads the pnpm-compatible .npmrc subset into the
// enumerated engine settings.
package npmrc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements settings loading from .npmrc files. The user-level
// file is read first, then the project-level file; project values win.
// Unknown keys are ignored with a warning.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load assembles the settings for a project directory.
func (l *Loader) Load(projectDir string) (domain.Settings, error) {
	settings, err := domain.DefaultSettings()
	if err != nil {
		return domain.Settings{}, err
	}

	if home, err := os.UserHomeDir(); err == nil {
		if err := l.applyFile(&settings, filepath.Join(home, domain.RcFileName), projectDir); err != nil {
			return domain.Settings{}, err
		}
	}
	if err := l.applyFile(&settings, filepath.Join(projectDir, domain.RcFileName), projectDir); err != nil {
		return domain.Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func (l *Loader) applyFile(settings *domain.Settings, path, projectDir string) error {
	//nolint:gosec // rc paths derive from home and the project dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read .npmrc"), "path", path)
	}

	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			l.logger.Warn(fmt.Sprintf("%s:%d: ignoring malformed line", path, lineNo+1))
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		l.applyKey(settings, key, value, projectDir)
	}
	return nil
}

func (l *Loader) applyKey(settings *domain.Settings, key, value, projectDir string) {
	switch key {
	case "store-dir":
		if !filepath.IsAbs(value) {
			value = filepath.Join(projectDir, value)
		}
		settings.StoreDir = domain.NewStoreDir(value)

	case "modules-dir":
		settings.ModulesDir = value

	case "virtual-store-dir":
		settings.VirtualStoreDir = value

	case "registry":
		if !strings.HasSuffix(value, "/") {
			value += "/"
		}
		settings.Registry = value

	case "auto-install-peers":
		settings.AutoInstallPeers = parseBool(value, settings.AutoInstallPeers)

	case "package-import-method":
		settings.ImportMethod = domain.ImportMethod(value)

	default:
		l.logger.Warn(fmt.Sprintf("ignoring unknown .npmrc key %q", key))
	}
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(value) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return fallback
	}
}
