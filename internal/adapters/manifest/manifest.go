// Package manifest reads and rewrites package.json files, preserving the
// manifest's key order across writes.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.ManifestStore on the filesystem.
type Store struct{}

// NewStore creates a manifest store.
func NewStore() *Store {
	return &Store{}
}

// manifestDoc is the read-side shape; key order is irrelevant for reads.
type manifestDoc struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Scripts              map[string]string `json:"scripts"`
}

// Load reads the manifest of a project directory.
func (s *Store) Load(projectDir string) (*domain.ProjectManifest, error) {
	path := filepath.Join(projectDir, domain.ManifestFileName)
	//nolint:gosec // the manifest path derives from the project dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrManifestNotFound, "path", path)
		}
		return nil, zerr.With(zerr.With(domain.ErrManifestFormat, "cause", err.Error()), "path", path)
	}

	var doc manifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.With(domain.ErrManifestFormat, "cause", err.Error()), "path", path)
	}

	return &domain.ProjectManifest{
		Name:                 doc.Name,
		Version:              doc.Version,
		Dependencies:         doc.Dependencies,
		DevDependencies:      doc.DevDependencies,
		OptionalDependencies: doc.OptionalDependencies,
		Scripts:              doc.Scripts,
	}, nil
}

// EnsureManifest creates a minimal manifest if the project has none, then
// loads it. The package name defaults to the directory name.
func (s *Store) EnsureManifest(projectDir string) (*domain.ProjectManifest, error) {
	path := filepath.Join(projectDir, domain.ManifestFileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		doc := newOrderedObject()
		doc.setString("name", filepath.Base(projectDir))
		doc.setString("version", "1.0.0")
		if err := s.write(path, doc); err != nil {
			return nil, err
		}
	}
	return s.Load(projectDir)
}

// AddDependency writes name: spec into the group block, creating the
// block if needed. Every other key keeps its position; a new dependency
// is appended to its block.
func (s *Store) AddDependency(projectDir, name, spec string, group domain.DependencyGroup) error {
	path := filepath.Join(projectDir, domain.ManifestFileName)
	//nolint:gosec // the manifest path derives from the project dir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(domain.ErrManifestNotFound, "path", path)
		}
		return zerr.With(zerr.With(domain.ErrManifestFormat, "cause", err.Error()), "path", path)
	}

	doc, err := parseOrderedObject(data)
	if err != nil {
		return zerr.With(zerr.With(domain.ErrManifestFormat, "cause", err.Error()), "path", path)
	}

	block := newOrderedObject()
	if raw, ok := doc.get(string(group)); ok {
		block, err = parseOrderedObject(raw)
		if err != nil {
			return zerr.With(zerr.With(domain.ErrManifestFormat, "cause", err.Error()), "path", path)
		}
	}
	block.setString(name, spec)

	encodedBlock, err := json.Marshal(block)
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWrite.Error())
	}
	doc.set(string(group), encodedBlock)

	return s.write(path, doc)
}

func (s *Store) write(path string, doc *orderedObject) error {
	compact, err := json.Marshal(doc)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", path)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, compact, "", "  "); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", path)
	}
	pretty.WriteByte('\n')

	if err := os.WriteFile(path, pretty.Bytes(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", path)
	}
	return nil
}
