package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltaic-labs/examdex/internal/domain"
)

func TestCategories_FixedSet(t *testing.T) {
	cats := Categories()

	require.Len(t, cats, 6)
	seen := make(map[domain.CategoryID]bool)
	for _, c := range cats {
		assert.NotEmpty(t, c.DisplayName)
		assert.NotEmpty(t, c.Keywords)
		assert.False(t, seen[c.ID], "duplicate category %s", c.ID)
		seen[c.ID] = true
		for _, kw := range c.Keywords {
			assert.NotEmpty(t, kw.Term)
			assert.Greater(t, kw.Weight, 0.0)
		}
	}
}

func TestCategoryByID(t *testing.T) {
	cat, ok := CategoryByID(domain.CategoryLighting)
	require.True(t, ok)
	assert.Equal(t, "Lighting Design", cat.DisplayName)

	_, ok = CategoryByID("nonexistent")
	assert.False(t, ok)
}

func TestCrossLinks_RegulationIsLinked(t *testing.T) {
	links := CrossLinks()

	require.NotEmpty(t, links)
	found := false
	for _, l := range links {
		if l.AlsoInclude == domain.CategoryRegulation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFormulas_EvaluatorsAreTotalOverValidInput(t *testing.T) {
	for _, f := range Formulas() {
		require.NotNil(t, f.Evaluate, "formula %s", f.ID)
		vars := make(map[string]float64, len(f.VariableNames))
		for _, name := range f.VariableNames {
			vars[name] = 2
		}
		result, err := f.Evaluate(vars)
		require.NoError(t, err, "formula %s", f.ID)
		assert.False(t, result != result, "formula %s produced NaN", f.ID)
	}
}

func TestFormulas_DivisionGuards(t *testing.T) {
	for _, f := range Formulas() {
		vars := make(map[string]float64, len(f.VariableNames))
		for _, name := range f.VariableNames {
			vars[name] = 0
		}
		result, err := f.Evaluate(vars)
		if err == nil {
			assert.False(t, result != result, "formula %s produced NaN on zero input", f.ID)
		}
	}
}

func TestLookupRegulation(t *testing.T) {
	entry, ok := LookupRegulation("232.8")
	require.True(t, ok)
	assert.Equal(t, "Cable tray systems", entry.Title)

	_, ok = LookupRegulation("KEC 142")
	assert.True(t, ok)

	_, ok = LookupRegulation("kec 232.81")
	assert.True(t, ok)

	_, ok = LookupRegulation("999.99")
	assert.False(t, ok)
}
