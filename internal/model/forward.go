package model

import (
	"fmt"
	"math"

	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
)

// Forward runs the network over one tokenized string and returns the scalar
// prediction together with the full activation trace the relevance pass
// consumes. tokens holds one alphabet index per input character.
func (m *Model) Forward(tokens []int) (*Trace, error) {
	n := len(tokens)
	if n == 0 {
		return nil, fmt.Errorf("model: empty input")
	}
	if n > m.MaxInput {
		return nil, fmt.Errorf("%w: %d > %d", ErrInputTooLong, n, m.MaxInput)
	}
	for i, tok := range tokens {
		if tok < 0 || tok >= vocab.Size {
			return nil, fmt.Errorf("model: token %d at position %d out of range", tok, i)
		}
	}

	nn := n + ConvPad
	tr := &Trace{N: n, NN: nn}

	// Symbol embedding plus sinusoidal positional encoding. Padding
	// positions carry the pad symbol embedding and no positional term.
	x := tensor.NewMat(nn, EmbeddingDim)
	for i := 0; i < nn; i++ {
		tok := vocab.PadIndex
		if i < n {
			tok = tokens[i]
		}
		copy(x.Row(i), m.Embed.Row(tok))
	}
	for j := 0; j < n; j++ {
		row := x.Row(j)
		for i := 0; i < EmbeddingDim; i++ {
			if i%2 == 0 {
				row[i] += math.Sin(float64(j+1) / math.Pow(10000, float64(i)/EmbeddingDim))
			} else {
				row[i] += math.Cos(float64(j+1) / math.Pow(10000, float64(i-1)/EmbeddingDim))
			}
		}
	}
	tr.Embedded = x.Clone()
	if tensor.MatHasNaN(&x) {
		return nil, &NumericError{Stage: "embedding"}
	}

	for b := 0; b < EncoderBlocks; b++ {
		out, err := m.encoderBlock(b, &x, n, &tr.Blocks[b])
		if err != nil {
			return nil, err
		}
		x = out
	}
	tr.EncoderOut = x.Clone()

	// Multi-scale convolution stage with max-over-position pooling.
	concat := make([]float64, 0, ConvConcat)
	for ci := range m.Convs {
		cf := &m.Convs[ci]
		ct := &tr.Convs[ci]
		windows := nn - cf.Width + 1
		ct.Pre = tensor.NewMat(windows, cf.Channels)
		for i := 0; i < windows; i++ {
			window := x.Data[i*EmbeddingDim : (i+cf.Width)*EmbeddingDim]
			row := ct.Pre.Row(i)
			tensor.VecMat(row, window, &cf.W, cf.B)
			tensor.ReLU(row)
		}
		ct.Pooled = make([]float64, cf.Channels)
		ct.Argmax = make([]int, cf.Channels)
		for c := 0; c < cf.Channels; c++ {
			best := ct.Pre.At(0, c)
			bestAt := 0
			for i := 1; i < windows; i++ {
				if v := ct.Pre.At(i, c); v > best {
					best = v
					bestAt = i
				}
			}
			ct.Pooled[c] = best
			ct.Argmax[c] = bestAt
		}
		if tensor.MatHasNaN(&ct.Pre) {
			return nil, &NumericError{Stage: fmt.Sprintf("conv.%d", cf.Width)}
		}
		concat = append(concat, ct.Pooled...)
	}
	tr.Concat = concat

	// Fusion dense + highway head.
	fused := make([]float64, FuseHidden)
	tensor.VecMat(fused, concat, &m.Fuse.W, m.Fuse.B)
	tensor.ReLU(fused)
	tr.Fused = fused
	if tensor.HasNaN(fused) {
		return nil, &NumericError{Stage: "fuse"}
	}

	gate := make([]float64, FuseHidden)
	tensor.VecMat(gate, fused, &m.HighwayGate.W, m.HighwayGate.B)
	for i, v := range gate {
		gate[i] = tensor.Sigmoid(v)
	}
	transformed := make([]float64, FuseHidden)
	tensor.VecMat(transformed, fused, &m.HighwayTransform.W, m.HighwayTransform.B)
	tensor.ReLU(transformed)

	transformGated := make([]float64, FuseHidden)
	carryGated := make([]float64, FuseHidden)
	highway := make([]float64, FuseHidden)
	for i := range highway {
		transformGated[i] = gate[i] * transformed[i]
		carryGated[i] = (1 - gate[i]) * fused[i]
		highway[i] = transformGated[i] + carryGated[i]
	}
	tr.Gate = gate
	tr.Transformed = transformed
	tr.TransformGated = transformGated
	tr.CarryGated = carryGated
	tr.Highway = highway
	if tensor.HasNaN(highway) {
		return nil, &NumericError{Stage: "highway"}
	}

	out := make([]float64, 1)
	tensor.VecMat(out, highway, &m.Out.W, m.Out.B)
	raw := out[0]
	if m.Classification() {
		raw = tensor.Sigmoid(raw)
	}
	tr.Raw = raw
	tr.Score = m.Transform.Apply(raw)
	if math.IsNaN(tr.Score) || math.IsInf(tr.Score, 0) {
		return nil, &NumericError{Stage: "output"}
	}
	return tr, nil
}

// encoderBlock runs one self-attention encoder block over x and records its
// diagnostics into bt.
func (m *Model) encoderBlock(b int, x *tensor.Mat, valid int, bt *BlockTrace) (tensor.Mat, error) {
	nn := x.R
	eb := &m.Blocks[b]
	scale := 1 / math.Sqrt(EmbeddingDim)

	// Heads project to the full embedding width; outputs are concatenated.
	sa := tensor.NewMat(nn, AttentionHeads*EmbeddingDim)
	q := tensor.NewMat(nn, EmbeddingDim)
	k := tensor.NewMat(nn, EmbeddingDim)
	v := tensor.NewMat(nn, EmbeddingDim)
	for h := 0; h < AttentionHeads; h++ {
		head := &eb.Heads[h]
		tensor.MatMul(&q, x, &head.Query)
		tensor.MatMul(&k, x, &head.Key)
		tensor.MatMul(&v, x, &head.Value)

		attn := tensor.NewMat(nn, nn)
		for i := 0; i < nn; i++ {
			qi := q.Row(i)
			ai := attn.Row(i)
			for j := 0; j < nn; j++ {
				ai[j] = tensor.Dot(qi, k.Row(j)) * scale
			}
			// Valid-length mask: every position attends to the first
			// valid characters only, padding is invisible.
			tensor.SoftmaxMasked(ai, valid)
		}
		bt.Attn[h] = attn

		for i := 0; i < nn; i++ {
			ai := attn.Row(i)
			out := sa.Row(i)[h*EmbeddingDim : (h+1)*EmbeddingDim]
			for j := 0; j < valid; j++ {
				w := ai[j]
				if w == 0 {
					continue
				}
				vj := v.Row(j)
				for d := 0; d < EmbeddingDim; d++ {
					out[d] += w * vj[d]
				}
			}
		}
	}

	// Projection, residual, first normalization.
	norm1 := tensor.NewMat(nn, EmbeddingDim)
	bt.Norm1Mean = make([]float64, nn)
	bt.Norm1Std = make([]float64, nn)
	dense := make([]float64, EmbeddingDim)
	for i := 0; i < nn; i++ {
		tensor.VecMat(dense, sa.Row(i), &eb.Proj.W, eb.Proj.B)
		tensor.Add(dense, x.Row(i))
		bt.Norm1Mean[i], bt.Norm1Std[i] = tensor.LayerNorm(
			norm1.Row(i), dense, eb.Norm1.Gamma, eb.Norm1.Beta, NormEpsilon)
	}

	// Position-wise feed-forward, residual, second normalization.
	out := tensor.NewMat(nn, EmbeddingDim)
	bt.Norm2Mean = make([]float64, nn)
	bt.Norm2Std = make([]float64, nn)
	hidden := make([]float64, FFHidden)
	down := make([]float64, EmbeddingDim)
	for i := 0; i < nn; i++ {
		tensor.VecMat(hidden, norm1.Row(i), &eb.FFUp.W, eb.FFUp.B)
		tensor.ReLU(hidden)
		tensor.VecMat(down, hidden, &eb.FFDown.W, eb.FFDown.B)
		tensor.Add(down, norm1.Row(i))
		bt.Norm2Mean[i], bt.Norm2Std[i] = tensor.LayerNorm(
			out.Row(i), down, eb.Norm2.Gamma, eb.Norm2.Beta, NormEpsilon)
	}
	bt.Output = out.Clone()

	if tensor.MatHasNaN(&out) {
		return tensor.Mat{}, &NumericError{Stage: fmt.Sprintf("encoder.%d", b)}
	}
	return out, nil
}
