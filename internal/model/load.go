package model

import (
	"fmt"

	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

// Tensor is one raw named tensor as read from a weight store.
type Tensor struct {
	Shape []int
	Data  []float64
}

// Load opens a TCW container, validates it against the architecture schema
// and binds every tensor. maxInput limits input characters before padding;
// values <= 0 select DefaultMaxInput. The container file is closed before
// returning; the model owns copies of all tensor data.
func Load(path string, maxInput int) (*Model, error) {
	f, err := tcw.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight store: %w", err)
	}
	defer func() { _ = f.Close() }()

	meta, err := f.ReadModelInfo()
	if err != nil {
		return nil, err
	}
	ti, err := f.ReadTensorIndex()
	if err != nil {
		return nil, err
	}

	tensors := make(map[string]Tensor, ti.Count())
	for i := 0; i < ti.Count(); i++ {
		name, err := ti.Name(i)
		if err != nil {
			return nil, err
		}
		if _, dup := tensors[name]; dup {
			return nil, fmt.Errorf("model: weight store lists tensor %q twice", name)
		}
		entry, err := ti.Entry(i)
		if err != nil {
			return nil, err
		}
		shape, err := ti.Shape(i)
		if err != nil {
			return nil, err
		}
		raw, err := ti.TensorData(f, i)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		data, err := tcw.DecodeFloats(entry.DType, raw)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		dims := make([]int, len(shape))
		for j, d := range shape {
			dims[j] = int(d)
		}
		tensors[name] = Tensor{Shape: dims, Data: data}
	}

	return New(meta, tensors, maxInput)
}

// New builds a Model from metadata and named tensors. Every schema tensor
// must be present with its exact shape and the store must carry nothing
// else; a mismatch is unrecoverable.
func New(meta tcw.ModelInfo, tensors map[string]Tensor, maxInput int) (*Model, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	transform, err := ParseTransform(meta.OutputTransform)
	if err != nil {
		return nil, err
	}
	if len(tensors) != NumTensors {
		return nil, fmt.Errorf("model: weight store has %d tensors, want %d", len(tensors), NumTensors)
	}
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}

	b := &binder{tensors: tensors}
	m := &Model{
		Meta:      meta,
		Transform: transform,
		MaxInput:  maxInput,
	}

	m.Embed = b.mat(embedName(), vocab.Size, EmbeddingDim)

	for blk := 0; blk < EncoderBlocks; blk++ {
		eb := &m.Blocks[blk]
		for h := 0; h < AttentionHeads; h++ {
			eb.Heads[h] = Attention{
				Key:   b.mat(attnName(blk, h, "key"), EmbeddingDim, EmbeddingDim),
				Value: b.mat(attnName(blk, h, "value"), EmbeddingDim, EmbeddingDim),
				Query: b.mat(attnName(blk, h, "query"), EmbeddingDim, EmbeddingDim),
			}
		}
		eb.Proj = Dense{
			W: b.mat(encName(blk, "proj.weight"), AttentionHeads*EmbeddingDim, EmbeddingDim),
			B: b.vec(encName(blk, "proj.bias"), EmbeddingDim),
		}
		eb.Norm1 = LayerNorm{
			Gamma: b.vec(encName(blk, "norm1.gamma"), EmbeddingDim),
			Beta:  b.vec(encName(blk, "norm1.beta"), EmbeddingDim),
		}
		eb.FFUp = Dense{
			W: b.mat(encName(blk, "ffn.up.weight"), EmbeddingDim, FFHidden),
			B: b.vec(encName(blk, "ffn.up.bias"), FFHidden),
		}
		eb.FFDown = Dense{
			W: b.mat(encName(blk, "ffn.down.weight"), FFHidden, EmbeddingDim),
			B: b.vec(encName(blk, "ffn.down.bias"), EmbeddingDim),
		}
		eb.Norm2 = LayerNorm{
			Gamma: b.vec(encName(blk, "norm2.gamma"), EmbeddingDim),
			Beta:  b.vec(encName(blk, "norm2.beta"), EmbeddingDim),
		}
	}

	for i, w := range ConvWidths {
		m.Convs[i] = ConvFilter{
			Width:    w,
			Channels: ConvChannels[i],
			W:        b.mat(convName(w, "weight"), w*EmbeddingDim, ConvChannels[i]),
			B:        b.vec(convName(w, "bias"), ConvChannels[i]),
		}
	}

	m.Fuse = Dense{
		W: b.mat("fuse.weight", ConvConcat, FuseHidden),
		B: b.vec("fuse.bias", FuseHidden),
	}
	m.HighwayGate = Dense{
		W: b.mat("highway.gate.weight", FuseHidden, FuseHidden),
		B: b.vec("highway.gate.bias", FuseHidden),
	}
	m.HighwayTransform = Dense{
		W: b.mat("highway.transform.weight", FuseHidden, FuseHidden),
		B: b.vec("highway.transform.bias", FuseHidden),
	}
	m.Out = Dense{
		W: b.mat("out.weight", FuseHidden, 1),
		B: b.vec("out.bias", 1),
	}

	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// binder accumulates the first binding error so call sites stay flat.
type binder struct {
	tensors map[string]Tensor
	err     error
}

func (b *binder) get(name string, shape ...int) (Tensor, bool) {
	if b.err != nil {
		return Tensor{}, false
	}
	t, ok := b.tensors[name]
	if !ok {
		b.err = fmt.Errorf("model: weight store is missing tensor %q", name)
		return Tensor{}, false
	}
	if !shapeEqual(t.Shape, shape) {
		b.err = &ShapeError{Name: name, Want: shape, Got: t.Shape}
		return Tensor{}, false
	}
	return t, true
}

func (b *binder) mat(name string, r, c int) tensor.Mat {
	t, ok := b.get(name, r, c)
	if !ok {
		return tensor.Mat{}
	}
	return tensor.NewMatFromData(r, c, t.Data)
}

func (b *binder) vec(name string, n int) []float64 {
	t, ok := b.get(name, n)
	if !ok {
		return nil
	}
	return t.Data
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
