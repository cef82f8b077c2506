// Package lrp redistributes a model's output score back onto the input
// characters, layer by layer, in strict reverse of the forward order. Every
// rule conserves the incoming relevance up to floating-point rounding.
package lrp

import (
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
)

// innerEpsilon stabilizes the inner dense rule's denominators.
const innerEpsilon = 1e-32

// zeroSumDenom replaces an exactly-zero additive-merge denominator so the
// split degenerates to a near-zero share instead of dividing by zero.
const zeroSumDenom = 1e32

// denseBackward redistributes rOut over the inputs of y = x·W + b in
// proportion to each input's signed share of the pre-activation sum. eps is
// added to every denominator.
func denseBackward(x []float64, w *tensor.Mat, b, rOut []float64, eps float64) []float64 {
	z := make([]float64, w.C)
	tensor.VecMat(z, x, w, b)

	// scale[o] = rOut[o] / (z[o] + eps), folded in once so the inner loop
	// is a plain dot product per input.
	scale := make([]float64, w.C)
	for o := range scale {
		scale[o] = rOut[o] / (z[o] + eps)
	}

	r := make([]float64, len(x))
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		r[i] = xi * tensor.Dot(w.Row(i), scale)
	}
	return r
}

// DenseOut is the top-of-chain dense rule: contribution shares are
// normalized by the full weighted sum including bias, with no epsilon.
func DenseOut(x []float64, d *model.Dense, rOut []float64) []float64 {
	return denseBackward(x, &d.W, d.B, rOut, 0)
}

// DenseInner is the dense rule used everywhere below the output layer.
func DenseInner(x []float64, d *model.Dense, rOut []float64) []float64 {
	return denseBackward(x, &d.W, d.B, rOut, innerEpsilon)
}

// SplitAdd splits the relevance of sum = first + second between the two
// branches in proportion to their signed contributions.
func SplitAdd(first, sum, r []float64) (rFirst, rSecond []float64) {
	rFirst = make([]float64, len(r))
	rSecond = make([]float64, len(r))
	for i := range r {
		denom := sum[i]
		if denom == 0 {
			denom = zeroSumDenom
		}
		rFirst[i] = r[i] * first[i] / denom
		rSecond[i] = r[i] - rFirst[i]
	}
	return rFirst, rSecond
}

// Depool routes each channel's relevance entirely to the window position
// that won the forward max-pool. The result has one row per conv window.
func Depool(windows int, argmax []int, r []float64) tensor.Mat {
	m := tensor.NewMat(windows, len(r))
	for c, at := range argmax {
		m.Set(at, c, r[c])
	}
	return m
}

// ConvBackward maps de-pooled conv relevance back onto the encoder output
// positions. x is the conv stage input (NN x D), depooled has one row per
// window. The returned map has the shape of x.
//
// A width-1 filter reduces to the inner dense rule applied independently at
// every position. Wider filters un-flatten each window's relevance into its
// width x D input block and accumulate the overlapping blocks; the total is
// then rescaled to the de-pooled sum, so overlap rounding never leaks
// relevance.
func ConvBackward(x *tensor.Mat, f *model.ConvFilter, depooled *tensor.Mat) tensor.Mat {
	out := tensor.NewMat(x.R, x.C)
	for i := 0; i < depooled.R; i++ {
		rw := depooled.Row(i)
		if allZero(rw) {
			continue
		}
		window := x.Data[i*x.C : (i+f.Width)*x.C]
		back := denseBackward(window, &f.W, f.B, rw, innerEpsilon)
		tensor.Add(out.Data[i*x.C:(i+f.Width)*x.C], back)
	}

	if f.Width > 1 {
		total := depooled.Sum()
		if s := out.Sum(); s != 0 {
			scale := total / s
			for i := range out.Data {
				out.Data[i] *= scale
			}
		}
	}
	return out
}

func allZero(x []float64) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}
