package lrp

import (
	"fmt"

	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
)

// Propagate redistributes the trace's reported score back onto the padded
// character positions. It returns one relevance value per position (length
// NN) together with the per-step conservation report. The entire reported
// score is the relevance budget; the budget is taken after the output
// transform, so the per-character values sum to what the caller saw.
//
// A NaN at any step aborts the pass with a numeric-instability error; drift
// in the conservation report is logged but never fatal.
func Propagate(m *model.Model, tr *model.Trace, log logger.Logger) ([]float64, Report, error) {
	var report Report
	step := func(name string, in float64, out []float64) error {
		if tensor.HasNaN(out) {
			return &model.NumericError{Stage: "relevance." + name}
		}
		s := Step{Name: name, In: in, Out: tensor.Sum(out)}
		report = append(report, s)
		if s.Drift() > Tolerance {
			log.Warn("relevance conservation drift",
				"step", name, "in", s.In, "out", s.Out, "delta", s.Delta())
		} else {
			log.Debug("relevance step", "step", name, "in", s.In, "out", s.Out)
		}
		return nil
	}

	// Output dense: the whole score enters the highway output.
	rHighway := DenseOut(tr.Highway, &m.Out, []float64{tr.Score})
	if err := step("output", tr.Score, rHighway); err != nil {
		return nil, report, err
	}

	// Highway merge: split between the carry and transform-gated branches,
	// then pull the transform branch back through its dense layer. The
	// sigmoid gates are treated as constants.
	rCarry, rTransformGated := SplitAdd(tr.CarryGated, tr.Highway, rHighway)
	rTransform := DenseInner(tr.Fused, &m.HighwayTransform, rTransformGated)
	rFused := make([]float64, len(rCarry))
	copy(rFused, rCarry)
	tensor.Add(rFused, rTransform)
	if err := step("highway", tensor.Sum(rHighway), rFused); err != nil {
		return nil, report, err
	}

	// Fusion dense back to the pooled conv concatenation.
	rConcat := DenseInner(tr.Concat, &m.Fuse, rFused)
	if err := step("fuse", tensor.Sum(rFused), rConcat); err != nil {
		return nil, report, err
	}

	// Per-filter de-pooling: each channel's relevance lands on its winning
	// window position.
	depooled := make([]tensor.Mat, len(m.Convs))
	var depoolTotal float64
	for i := range m.Convs {
		off := model.ConvOffset(i)
		depooled[i] = Depool(tr.Convs[i].Pre.R, tr.Convs[i].Argmax, rConcat[off:off+m.Convs[i].Channels])
		depoolTotal += depooled[i].Sum()
	}
	report = append(report, Step{Name: "depool", In: tensor.Sum(rConcat), Out: depoolTotal})

	// Convolution backward onto the encoder output positions, accumulated
	// over all twelve filters.
	positions := tensor.NewMat(tr.NN, model.EmbeddingDim)
	for i := range m.Convs {
		f := &m.Convs[i]
		back := ConvBackward(&tr.EncoderOut, f, &depooled[i])
		if err := step(fmt.Sprintf("conv.%d", f.Width), depooled[i].Sum(), back.Data); err != nil {
			return nil, report, err
		}
		tensor.Add(positions.Data, back.Data)
	}

	// Per-position relevance is the row sum over the embedding axis.
	relevance := make([]float64, tr.NN)
	for i := 0; i < tr.NN; i++ {
		relevance[i] = tensor.Sum(positions.Row(i))
	}
	if err := step("total", tr.Score, relevance); err != nil {
		return nil, report, err
	}
	return relevance, report, nil
}
