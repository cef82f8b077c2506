package tcw

import (
	"encoding/binary"
	"math"
)

// DecodeFloats decodes a tensor payload of the given dtype into float64
// values. The payload length must be a whole number of elements.
func DecodeFloats(dtype TensorDType, raw []byte) ([]float64, error) {
	elem := dtype.ElemSize()
	if elem == 0 || len(raw)%elem != 0 {
		return nil, ErrCorruptFile
	}
	n := len(raw) / elem
	out := make([]float64, n)
	switch dtype {
	case DTypeF32:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	case DTypeF64:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			out[i] = math.Float64frombits(bits)
		}
	}
	return out, nil
}

// EncodeFloats encodes float64 values as a little-endian payload of the
// given dtype.
func EncodeFloats(dtype TensorDType, vals []float64) ([]byte, error) {
	elem := dtype.ElemSize()
	if elem == 0 {
		return nil, ErrCorruptFile
	}
	out := make([]byte, len(vals)*elem)
	switch dtype {
	case DTypeF32:
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
		}
	case DTypeF64:
		for i, v := range vals {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
	}
	return out, nil
}
