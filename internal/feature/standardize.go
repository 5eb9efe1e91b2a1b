package feature

import "math"

// Standardize z-scores each feature column over the whole population:
// subtract the column mean and divide by the population standard deviation.
// Columns with near-zero variance keep their centered value, which avoids a
// division blow-up while preserving the shift. The input is not modified.
func Standardize(vectors [][]float64) [][]float64 {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	dim := len(vectors[0])

	means := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			means[j] += x
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	stds := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			d := x - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / float64(n))
		if stds[j] < varianceFloor {
			stds[j] = 1
		}
	}

	out := make([][]float64, n)
	for i, v := range vectors {
		row := make([]float64, dim)
		for j, x := range v {
			row[j] = (x - means[j]) / stds[j]
		}
		out[i] = row
	}
	return out
}

// varianceFloor is the standard deviation below which a column is treated as
// constant.
const varianceFloor = 1e-10
