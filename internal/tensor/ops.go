package tensor

import "math"

// Add adds src to dst element-wise.
func Add(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Sum returns the sum of the elements of x.
func Sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}

// ReLU clamps negative values of x to zero in place.
func ReLU(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

// Sigmoid computes the logistic sigmoid activation.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// SoftmaxMasked normalizes x[:valid] with the softmax function and zeroes
// x[valid:]. The row maximum is subtracted before exponentiation; the result
// is identical to exp(x)*mask/rowsum but stable for large scores.
func SoftmaxMasked(x []float64, valid int) {
	if valid <= 0 || valid > len(x) {
		panic("softmax valid length out of range")
	}
	maxv := x[0]
	for _, v := range x[1:valid] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	for i := 0; i < valid; i++ {
		v := math.Exp(x[i] - maxv)
		x[i] = v
		sum += v
	}
	inv := 1.0 / sum
	for i := 0; i < valid; i++ {
		x[i] *= inv
	}
	for i := valid; i < len(x); i++ {
		x[i] = 0
	}
}

// LayerNorm normalizes src over the feature axis into dst using learned
// scale and shift. The denominator is the population standard deviation
// stabilized by eps, matching Keras LayerNormalization with std (not
// variance) in the denominator. It returns the mean and std used.
func LayerNorm(dst, src, gamma, beta []float64, eps float64) (mean, std float64) {
	n := float64(len(src))
	for _, v := range src {
		mean += v
	}
	mean /= n
	var ss float64
	for _, v := range src {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / n)
	inv := 1.0 / (std + eps)
	for i, v := range src {
		dst[i] = gamma[i]*(v-mean)*inv + beta[i]
	}
	return mean, std
}

// HasNaN reports whether x contains a NaN or infinity.
func HasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// MatHasNaN reports whether m contains a NaN or infinity.
func MatHasNaN(m *Mat) bool {
	for i := 0; i < m.R; i++ {
		if HasNaN(m.Row(i)) {
			return true
		}
	}
	return false
}
