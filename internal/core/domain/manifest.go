package domain

// ProjectManifest is the decoded view of a project's package.json. The
// manifest adapter preserves on-disk key order; this type only carries
// the fields the engine consumes.
type ProjectManifest struct {
	Name    string
	Version string

	Dependencies         map[string]string
	DevDependencies      map[string]string
	OptionalDependencies map[string]string
	Scripts              map[string]string
}

// Group returns the dependency map of one manifest group.
func (m *ProjectManifest) Group(group DependencyGroup) map[string]string {
	switch group {
	case GroupDev:
		return m.DevDependencies
	case GroupOptional:
		return m.OptionalDependencies
	default:
		return m.Dependencies
	}
}

// DependencySpecs flattens the requested groups into PackageSpecs. A name
// declared in several groups is emitted once; the regular dependencies
// block wins.
func (m *ProjectManifest) DependencySpecs(groups []DependencyGroup) []PackageSpec {
	merged := make(map[string]string)
	for _, group := range groups {
		for name, rng := range m.Group(group) {
			merged[name] = rng
		}
	}
	for _, group := range groups {
		if group == GroupProd {
			for name, rng := range m.Dependencies {
				merged[name] = rng
			}
		}
	}

	specs := make([]PackageSpec, 0, len(merged))
	for name, rng := range merged {
		specs = append(specs, PackageSpec{Name: name, Range: rng})
	}
	return specs
}
