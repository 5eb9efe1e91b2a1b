// Package pca computes a low-dimensional embedding of standardized feature
// vectors via covariance eigen-decomposition. Eigenvectors are extracted one
// at a time with power iteration and Gram-Schmidt deflation so the whole
// procedure stays deterministic under a seeded random source.
package pca

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"neurochord/internal/detrand"
)

// powerIterations is the fixed iteration count per component.
const powerIterations = 100

// Result holds the extracted components, the input rows projected onto them,
// and the share of variance each component explains. Components are
// orthonormal within numerical tolerance.
type Result struct {
	Components        [][]float64
	Transformed       [][]float64
	ExplainedVariance []float64
}

// Transform centers the rows, builds the sample covariance matrix and
// projects onto its top-k eigenvectors. k is clamped to the data dimension
// and to the row count. Empty input yields an empty Result.
func Transform(rng *detrand.Source, rows [][]float64, k int) Result {
	n := len(rows)
	if n == 0 {
		return Result{}
	}
	dim := len(rows[0])
	if k > dim {
		k = dim
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	centered := center(rows)
	cov := covariance(centered)

	components := make([][]float64, 0, k)
	eigenvalues := make([]float64, 0, k)
	for c := 0; c < k; c++ {
		vec, val := dominantEigenvector(rng, cov, components)
		components = append(components, vec)
		eigenvalues = append(eigenvalues, val)
	}

	transformed := make([][]float64, n)
	for i, row := range centered {
		point := make([]float64, k)
		for j, comp := range components {
			point[j] = floats.Dot(row, comp)
		}
		transformed[i] = point
	}

	return Result{
		Components:        components,
		Transformed:       transformed,
		ExplainedVariance: varianceShares(eigenvalues),
	}
}

func center(rows [][]float64) [][]float64 {
	dim := len(rows[0])
	means := make([]float64, dim)
	for _, row := range rows {
		floats.Add(means, row)
	}
	floats.Scale(1/float64(len(rows)), means)

	out := make([][]float64, len(rows))
	for i, row := range rows {
		c := make([]float64, dim)
		copy(c, row)
		floats.Sub(c, means)
		out[i] = c
	}
	return out
}

// covariance builds the dim x dim sample covariance matrix. With a single
// row there is no variance to estimate and the matrix stays zero.
func covariance(rows [][]float64) [][]float64 {
	n := len(rows)
	dim := len(rows[0])
	cov := make([][]float64, dim)
	for i := range cov {
		cov[i] = make([]float64, dim)
	}
	if n < 2 {
		return cov
	}
	for _, row := range rows {
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				cov[i][j] += row[i] * row[j]
			}
		}
	}
	scale := 1 / float64(n-1)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov[i][j] *= scale
			cov[j][i] = cov[i][j]
		}
	}
	return cov
}

// dominantEigenvector runs deflated power iteration: start from a random
// unit vector, repeatedly multiply by the covariance matrix, project out the
// already-found components and renormalize. Returns the vector and the
// eigenvalue estimate ||cov . v||.
func dominantEigenvector(rng *detrand.Source, cov [][]float64, found [][]float64) ([]float64, float64) {
	dim := len(cov)
	v := make([]float64, dim)
	for i := range v {
		v[i] = rng.Next() - 0.5
	}
	deflate(v, found)
	normalize(v)

	product := make([]float64, dim)
	var norm float64
	for iter := 0; iter < powerIterations; iter++ {
		matVec(cov, v, product)
		deflate(product, found)
		norm = floats.Norm(product, 2)
		if norm == 0 {
			// Degenerate direction; keep the current unit vector.
			break
		}
		floats.Scale(1/norm, product)
		copy(v, product)
	}
	return v, norm
}

func matVec(m [][]float64, v, dst []float64) {
	for i, row := range m {
		dst[i] = floats.Dot(row, v)
	}
}

// deflate removes the projections of v onto each already-found component.
func deflate(v []float64, found [][]float64) {
	for _, f := range found {
		p := floats.Dot(v, f)
		floats.AddScaled(v, -p, f)
	}
}

func normalize(v []float64) {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		v[0] = 1
		return
	}
	floats.Scale(1/norm, v)
}

// varianceShares converts the eigenvalue estimates into relative weights
// summing to one. Downstream consumers use these only as a coarse sort key.
func varianceShares(eigenvalues []float64) []float64 {
	shares := make([]float64, len(eigenvalues))
	var total float64
	for _, ev := range eigenvalues {
		if ev > 0 && !math.IsNaN(ev) {
			total += ev
		}
	}
	if total == 0 {
		for i := range shares {
			shares[i] = 1 / float64(len(shares))
		}
		return shares
	}
	for i, ev := range eigenvalues {
		if ev > 0 && !math.IsNaN(ev) {
			shares[i] = ev / total
		}
	}
	return shares
}
