package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pacquet/internal/core/domain"
)

func TestParsePackageSpec(t *testing.T) {
	t.Parallel()

	cases := []struct {
		arg  string
		name string
		rng  string
	}{
		{"fastify", "fastify", ""},
		{"fastify@^4.0.0", "fastify", "^4.0.0"},
		{"typescript@5.1.6", "typescript", "5.1.6"},
		{"@fastify/error", "@fastify/error", ""},
		{"@fastify/error@^3.0.0", "@fastify/error", "^3.0.0"},
	}

	for _, tc := range cases {
		t.Run(tc.arg, func(t *testing.T) {
			t.Parallel()
			spec, err := domain.ParsePackageSpec(tc.arg)
			require.NoError(t, err)
			assert.Equal(t, tc.name, spec.Name)
			assert.Equal(t, tc.rng, spec.Range)
		})
	}

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := domain.ParsePackageSpec("")
		require.ErrorIs(t, err, domain.ErrInvalidPackageSpec)
	})
}

func TestVirtualStoreName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fast-querystring@1.1.0", domain.VirtualStoreName("fast-querystring", "1.1.0"))
	assert.Equal(t, "@fastify+error@3.3.0", domain.VirtualStoreName("@fastify/error", "3.3.0"))

	t.Run("overlong names are hashed", func(t *testing.T) {
		t.Parallel()
		long := domain.VirtualStoreName("@scope/"+strings.Repeat("a", 200), "1.0.0")
		assert.LessOrEqual(t, len(long), 120)

		again := domain.VirtualStoreName("@scope/"+strings.Repeat("a", 200), "1.0.0")
		assert.Equal(t, long, again)

		other := domain.VirtualStoreName("@scope/"+strings.Repeat("b", 200), "1.0.0")
		assert.NotEqual(t, long, other)
	})
}

func TestDependencySpecs(t *testing.T) {
	t.Parallel()

	pkg := &domain.ResolvedPackage{
		Name:    "fastify",
		Version: "4.2.0",
		Dependencies: map[string]string{
			"pino":          "^8.0.0",
			"fast-json-stringify": "^5.0.0",
		},
		OptionalDependencies: map[string]string{"fsevents": "^2.3.0"},
		PeerDependencies:     map[string]string{"pino": "^7.0.0"},
	}

	t.Run("runtime only", func(t *testing.T) {
		t.Parallel()
		specs := pkg.DependencySpecs(false, false)
		require.Len(t, specs, 2)
		// Deterministic, sorted by name.
		assert.Equal(t, "fast-json-stringify", specs[0].Name)
		assert.Equal(t, "pino", specs[1].Name)
	})

	t.Run("optional included", func(t *testing.T) {
		t.Parallel()
		specs := pkg.DependencySpecs(true, false)
		assert.Len(t, specs, 3)
	})

	t.Run("regular block wins over peers", func(t *testing.T) {
		t.Parallel()
		specs := pkg.DependencySpecs(false, true)
		for _, spec := range specs {
			if spec.Name == "pino" {
				assert.Equal(t, "^8.0.0", spec.Range)
			}
		}
	})
}

func TestSaveSpec(t *testing.T) {
	t.Parallel()

	pkg := &domain.ResolvedPackage{Name: "typescript", Version: "5.1.6"}
	assert.Equal(t, "^5.1.6", pkg.SaveSpec(false))
	assert.Equal(t, "5.1.6", pkg.SaveSpec(true))
}
