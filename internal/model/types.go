package model

import (
	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

// Dense is an affine layer: y = x·W + B.
type Dense struct {
	W tensor.Mat
	B []float64
}

// LayerNorm holds the learned scale and shift of one normalization layer.
type LayerNorm struct {
	Gamma []float64
	Beta  []float64
}

// Attention holds the projection matrices of one self-attention head.
type Attention struct {
	Key   tensor.Mat
	Value tensor.Mat
	Query tensor.Mat
}

// EncoderBlock holds the weights of one encoder block.
type EncoderBlock struct {
	Heads  [AttentionHeads]Attention
	Proj   Dense
	Norm1  LayerNorm
	FFUp   Dense
	FFDown Dense
	Norm2  LayerNorm
}

// ConvFilter holds one 1-D convolution filter. W is the affine transform of
// the flattened window (Width*EmbeddingDim x Channels).
type ConvFilter struct {
	Width    int
	Channels int
	W        tensor.Mat
	B        []float64
}

// Model is the immutable, fully validated weight store bound to the fixed
// architecture. It is safe for concurrent use: nothing is mutated after
// load and every forward pass allocates its own activation trace.
type Model struct {
	Meta      tcw.ModelInfo
	Transform Transform

	Embed  tensor.Mat
	Blocks [EncoderBlocks]EncoderBlock
	Convs  [len(ConvWidths)]ConvFilter

	Fuse             Dense
	HighwayGate      Dense
	HighwayTransform Dense
	Out              Dense

	MaxInput int
}

// Classification reports whether the model output passes through a sigmoid.
func (m *Model) Classification() bool {
	return m.Meta.TaskType == tcw.TaskClassification
}
