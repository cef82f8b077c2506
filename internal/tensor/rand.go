package tensor

import "math/rand"

// FillRand fills the matrix with reproducible pseudo-random values in a small
// range around zero. Multiple calls with the same seed produce identical
// matrices.
func FillRand(m *Mat, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = (rng.Float64() - 0.5) * 0.2
	}
}

// FillRandVec fills a vector the same way as FillRand.
func FillRandVec(v []float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range v {
		v[i] = (rng.Float64() - 0.5) * 0.2
	}
}
