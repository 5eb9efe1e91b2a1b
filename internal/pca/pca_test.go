package pca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"neurochord/internal/detrand"
)

// blob generates points spread mostly along the first axis with small noise
// on the second, so the dominant eigenvector is known up to sign.
func blob(n int) [][]float64 {
	rng := detrand.New(1)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{
			10 * (rng.Next() - 0.5),
			0.1 * (rng.Next() - 0.5),
			0.1 * (rng.Next() - 0.5),
		}
	}
	return rows
}

func TestTransformEmptyInput(t *testing.T) {
	result := Transform(detrand.New(1), nil, 3)
	assert.Empty(t, result.Components)
	assert.Empty(t, result.Transformed)
	assert.Empty(t, result.ExplainedVariance)
}

func TestTransformDimensions(t *testing.T) {
	result := Transform(detrand.New(7), blob(40), 2)
	require.Len(t, result.Components, 2)
	require.Len(t, result.Transformed, 40)
	require.Len(t, result.ExplainedVariance, 2)
	for _, point := range result.Transformed {
		require.Len(t, point, 2)
	}
}

func TestTransformClampsComponentCount(t *testing.T) {
	result := Transform(detrand.New(7), blob(40), 99)
	assert.Len(t, result.Components, 3, "k must be clamped to the data dimension")

	two := [][]float64{{1, 2, 3}, {4, 5, 6}}
	result = Transform(detrand.New(7), two, 3)
	assert.Len(t, result.Components, 2, "k must be clamped to the row count")
}

func TestTransformComponentsOrthonormal(t *testing.T) {
	result := Transform(detrand.New(11), blob(60), 3)
	for i, a := range result.Components {
		assert.InDelta(t, 1, floats.Norm(a, 2), 1e-6, "component %d norm", i)
		for j, b := range result.Components {
			if i == j {
				continue
			}
			assert.InDelta(t, 0, floats.Dot(a, b), 1e-6, "components %d and %d not orthogonal", i, j)
		}
	}
}

func TestTransformFindsDominantDirection(t *testing.T) {
	result := Transform(detrand.New(3), blob(80), 1)
	first := result.Components[0]
	assert.InDelta(t, 1, math.Abs(first[0]), 1e-3, "first component should align with the high-variance axis")
}

func TestTransformDeterministicUnderSeed(t *testing.T) {
	rows := blob(50)
	a := Transform(detrand.New(42), rows, 2)
	b := Transform(detrand.New(42), rows, 2)
	require.Equal(t, a.Components, b.Components)
	require.Equal(t, a.Transformed, b.Transformed)
	require.Equal(t, a.ExplainedVariance, b.ExplainedVariance)
}

func TestExplainedVarianceSumsToOne(t *testing.T) {
	result := Transform(detrand.New(5), blob(60), 3)
	var sum float64
	for _, share := range result.ExplainedVariance {
		assert.GreaterOrEqual(t, share, 0.0)
		sum += share
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.Greater(t, result.ExplainedVariance[0], result.ExplainedVariance[1],
		"dominant component should explain the most variance")
}

func TestTransformSingleRow(t *testing.T) {
	result := Transform(detrand.New(1), [][]float64{{1, 2, 3}}, 2)
	require.Len(t, result.Transformed, 1)
	require.Len(t, result.Transformed[0], 1)
	assert.Equal(t, 0.0, result.Transformed[0][0], "a single centered row projects to the origin")
}
