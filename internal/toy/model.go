// Package toy builds small deterministic weight sets for tests, benchmarks
// and the pack command's demo mode. The weights are pseudo-random but
// reproducible: the same seed always yields the same model.
package toy

import (
	"os"

	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/tensor"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

// Info returns toy model metadata for the given transform name.
func Info(taskType, transform string) tcw.ModelInfo {
	return tcw.ModelInfo{
		TaskName:        "toy",
		TaskType:        taskType,
		OutputTransform: transform,
	}
}

// Tensors generates the complete tensor set of the architecture schema,
// filled with reproducible pseudo-random values derived from seed.
func Tensors(seed int64) []tcw.TensorPayload {
	specs := model.Schema()
	payloads := make([]tcw.TensorPayload, len(specs))
	for i, spec := range specs {
		n := 1
		shape := make([]uint64, len(spec.Shape))
		for j, d := range spec.Shape {
			n *= d
			shape[j] = uint64(d)
		}
		data := make([]float64, n)
		tensor.FillRandVec(data, seed+int64(i))
		payloads[i] = tcw.TensorPayload{
			Name:  spec.Name,
			DType: tcw.DTypeF64,
			Shape: shape,
			Data:  data,
		}
	}
	return payloads
}

// Model builds a ready-to-run model without touching the filesystem.
func Model(taskType, transform string, seed int64, maxInput int) (*model.Model, error) {
	tensors := make(map[string]model.Tensor)
	for _, p := range Tensors(seed) {
		shape := make([]int, len(p.Shape))
		for j, d := range p.Shape {
			shape[j] = int(d)
		}
		tensors[p.Name] = model.Tensor{Shape: shape, Data: p.Data}
	}
	return model.New(Info(taskType, transform), tensors, maxInput)
}

// WriteStore writes a complete toy weight container to path.
func WriteStore(path, taskType, transform string, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tcw.WriteStore(f, Info(taskType, transform), Tensors(seed)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
