package model

import "github.com/alexarnimueller/transformer-cnn/internal/tensor"

// BlockTrace records the diagnostic intermediates of one encoder block.
type BlockTrace struct {
	// Attn holds the row-normalized attention weight matrix of each head
	// (NN x NN).
	Attn [AttentionHeads]tensor.Mat

	// Norm1Mean/Norm1Std and Norm2Mean/Norm2Std are the per-position
	// normalization statistics (length NN).
	Norm1Mean, Norm1Std []float64
	Norm2Mean, Norm2Std []float64

	// Output is the block output fed to the next block (NN x EmbeddingDim).
	Output tensor.Mat
}

// ConvTrace records what the relevance pass needs from one conv filter.
type ConvTrace struct {
	// Pre holds the ReLU-activated window responses (windows x channels),
	// where windows = NN - width + 1.
	Pre tensor.Mat

	// Pooled is the max-over-position value per channel.
	Pooled []float64

	// Argmax is the window index that produced each channel's maximum.
	Argmax []int
}

// Trace is the full activation record of one forward pass. It is created
// fresh per call, consumed by the matching relevance pass and then dropped;
// traces are never shared across passes.
type Trace struct {
	// N is the input character count, NN = N + ConvPad the padded length.
	N, NN int

	// Embedded is the token embedding plus positional encoding (NN x D).
	Embedded tensor.Mat

	Blocks [EncoderBlocks]BlockTrace

	// EncoderOut is the final encoder output the conv stage reads (NN x D).
	EncoderOut tensor.Mat

	Convs [len(ConvWidths)]ConvTrace

	// Concat is the concatenation of all pooled conv vectors (ConvConcat).
	Concat []float64

	// Fused is the ReLU output of the fusion dense layer (FuseHidden).
	Fused []float64

	// Highway intermediates, all of length FuseHidden.
	Gate           []float64 // sigmoid transform gate
	Transformed    []float64 // ReLU transform path
	TransformGated []float64 // Gate * Transformed
	CarryGated     []float64 // (1-Gate) * Fused
	Highway        []float64 // TransformGated + CarryGated

	// Raw is the network output after the optional classification sigmoid
	// but before the output transform. Score is the reported value.
	Raw   float64
	Score float64
}

// ConvOffset returns the offset of filter i inside the concatenated pooled
// vector.
func ConvOffset(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += ConvChannels[j]
	}
	return off
}
