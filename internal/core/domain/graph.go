package domain

import (
	"iter"
	"sort"
	"sync"

	"go.trai.ch/zerr"
)

// ResolvedGraph is the dependency graph of one install run. Nodes are
// addressed by "name@version" keys; edges are adjacency lists of dependency
// name -> resolved version. The graph may contain cycles; traversal carries
// a visited set instead of owning references in both directions.
type ResolvedGraph struct {
	mu       sync.RWMutex
	packages map[string]*ResolvedPackage
	edges    map[string]map[string]string
	direct   map[string]string
}

// NewResolvedGraph creates an empty graph.
func NewResolvedGraph() *ResolvedGraph {
	return &ResolvedGraph{
		packages: make(map[string]*ResolvedPackage),
		edges:    make(map[string]map[string]string),
		direct:   make(map[string]string),
	}
}

// AddPackage inserts a node. Inserting the same key twice is a no-op; the
// first insertion wins, matching the (name, version) deduplication
// invariant.
func (g *ResolvedGraph) AddPackage(p *ResolvedPackage) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.packages[p.Key()]; exists {
		return false
	}
	g.packages[p.Key()] = p
	return true
}

// AddEdge records that the package identified by fromKey depends on
// depName at depVersion.
func (g *ResolvedGraph) AddEdge(fromKey, depName, depVersion string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	deps, ok := g.edges[fromKey]
	if !ok {
		deps = make(map[string]string)
		g.edges[fromKey] = deps
	}
	deps[depName] = depVersion
}

// SetDirect records a direct project dependency.
func (g *ResolvedGraph) SetDirect(name, version string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.direct[name] = version
}

// Package returns the node for a key, or nil.
func (g *ResolvedGraph) Package(key string) *ResolvedPackage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.packages[key]
}

// Len returns the number of nodes.
func (g *ResolvedGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.packages)
}

// Edges returns the dependency map of one node in a fresh copy.
func (g *ResolvedGraph) Edges(key string) map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps := make(map[string]string, len(g.edges[key]))
	for name, version := range g.edges[key] {
		deps[name] = version
	}
	return deps
}

// Direct returns the project's direct dependencies as name -> version.
func (g *ResolvedGraph) Direct() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	direct := make(map[string]string, len(g.direct))
	for name, version := range g.direct {
		direct[name] = version
	}
	return direct
}

// Walk yields every node reachable from the direct dependencies in
// deterministic (sorted key) order. Cycles terminate through the visited
// set.
func (g *ResolvedGraph) Walk() iter.Seq[*ResolvedPackage] {
	return func(yield func(*ResolvedPackage) bool) {
		g.mu.RLock()
		defer g.mu.RUnlock()

		roots := make([]string, 0, len(g.direct))
		for name, version := range g.direct {
			roots = append(roots, name+"@"+version)
		}
		sort.Strings(roots)

		visited := make(map[string]bool, len(g.packages))
		var visit func(key string) bool
		visit = func(key string) bool {
			if visited[key] {
				return true
			}
			visited[key] = true
			pkg, ok := g.packages[key]
			if !ok {
				return true
			}
			if !yield(pkg) {
				return false
			}

			depKeys := make([]string, 0, len(g.edges[key]))
			for name, version := range g.edges[key] {
				depKeys = append(depKeys, name+"@"+version)
			}
			sort.Strings(depKeys)
			for _, depKey := range depKeys {
				if !visit(depKey) {
					return false
				}
			}
			return true
		}

		for _, root := range roots {
			if !visit(root) {
				return
			}
		}
	}
}

// Validate checks that every edge and every direct dependency points at a
// node present in the graph.
func (g *ResolvedGraph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for name, version := range g.direct {
		if _, ok := g.packages[name+"@"+version]; !ok {
			return zerr.With(ErrMissingGraphNode, "package", name+"@"+version)
		}
	}
	for fromKey, deps := range g.edges {
		for name, version := range deps {
			if _, ok := g.packages[name+"@"+version]; !ok {
				err := zerr.With(ErrMissingGraphNode, "package", name+"@"+version)
				return zerr.With(err, "required_by", fromKey)
			}
		}
	}
	return nil
}
