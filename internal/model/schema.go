// Package model binds a TCW weight container to the fixed Transformer-CNN
// architecture and runs the forward pass over one tokenized string.
package model

import (
	"fmt"

	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
)

// Architecture constants. These describe the one network topology the
// pretrained weight stores were trained for; they are not tunable.
const (
	// EmbeddingDim is the width of the symbol embedding and of every encoder
	// layer.
	EmbeddingDim = 64

	// ConvPad is the number of padding positions appended after the input so
	// the widest convolution always has at least one full window.
	ConvPad = 20

	// EncoderBlocks is the number of stacked self-attention encoder blocks.
	EncoderBlocks = 3

	// AttentionHeads is the number of self-attention heads per block. Each
	// head projects to the full embedding width; the concatenated head
	// outputs are folded back by a dense projection.
	AttentionHeads = 10

	// FFHidden is the width of the position-wise feed-forward hidden layer.
	FFHidden = 512

	// FuseHidden is the width of the dense layer fusing the pooled
	// convolution features, and of the highway block.
	FuseHidden = 512

	// NormEpsilon stabilizes the layer normalization denominator.
	NormEpsilon = 1e-6

	// DefaultMaxInput is the default limit on input characters before
	// padding.
	DefaultMaxInput = 256
)

// ConvWidths lists the receptive-field width of each convolution filter.
var ConvWidths = [...]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 20}

// ConvChannels lists the output channel count of each convolution filter,
// index-aligned with ConvWidths.
var ConvChannels = [...]int{100, 200, 200, 200, 200, 100, 100, 100, 100, 100, 160, 160}

// ConvConcat is the total width of the concatenated pooled conv features.
const ConvConcat = 1720

// NumTensors is the number of named tensors a valid weight store carries.
const NumTensors = 153

// Tensor name helpers. The store is addressed by name, never by position.

func embedName() string { return "embed.weight" }

func attnName(block, head int, which string) string {
	return fmt.Sprintf("enc.%d.attn.%d.%s", block, head, which)
}

func encName(block int, part string) string {
	return fmt.Sprintf("enc.%d.%s", block, part)
}

func convName(width int, part string) string {
	return fmt.Sprintf("conv.%d.%s", width, part)
}

// TensorSpec names one expected tensor and its exact shape.
type TensorSpec struct {
	Name  string
	Shape []int
}

// Schema returns the full list of tensors a weight store must provide, with
// their exact shapes. Load validates the store against this list; any
// missing tensor, extra tensor or shape mismatch is a load-time error.
func Schema() []TensorSpec {
	specs := make([]TensorSpec, 0, NumTensors)
	add := func(name string, shape ...int) {
		specs = append(specs, TensorSpec{Name: name, Shape: shape})
	}

	add(embedName(), vocab.Size, EmbeddingDim)

	for b := 0; b < EncoderBlocks; b++ {
		for h := 0; h < AttentionHeads; h++ {
			add(attnName(b, h, "key"), EmbeddingDim, EmbeddingDim)
			add(attnName(b, h, "value"), EmbeddingDim, EmbeddingDim)
			add(attnName(b, h, "query"), EmbeddingDim, EmbeddingDim)
		}
		add(encName(b, "proj.weight"), AttentionHeads*EmbeddingDim, EmbeddingDim)
		add(encName(b, "proj.bias"), EmbeddingDim)
		add(encName(b, "norm1.gamma"), EmbeddingDim)
		add(encName(b, "norm1.beta"), EmbeddingDim)
		add(encName(b, "ffn.up.weight"), EmbeddingDim, FFHidden)
		add(encName(b, "ffn.up.bias"), FFHidden)
		add(encName(b, "ffn.down.weight"), FFHidden, EmbeddingDim)
		add(encName(b, "ffn.down.bias"), EmbeddingDim)
		add(encName(b, "norm2.gamma"), EmbeddingDim)
		add(encName(b, "norm2.beta"), EmbeddingDim)
	}

	for i, w := range ConvWidths {
		add(convName(w, "weight"), w*EmbeddingDim, ConvChannels[i])
		add(convName(w, "bias"), ConvChannels[i])
	}

	add("fuse.weight", ConvConcat, FuseHidden)
	add("fuse.bias", FuseHidden)
	add("highway.gate.weight", FuseHidden, FuseHidden)
	add("highway.gate.bias", FuseHidden)
	add("highway.transform.weight", FuseHidden, FuseHidden)
	add("highway.transform.bias", FuseHidden)
	add("out.weight", FuseHidden, 1)
	add("out.bias", 1)

	return specs
}
