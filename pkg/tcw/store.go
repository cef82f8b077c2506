package tcw

import (
	"errors"
	"fmt"
	"os"
)

// TensorPayload is one named tensor to be packed into a container.
type TensorPayload struct {
	Name  string
	DType TensorDType
	Shape []uint64
	Data  []float64
}

func (t *TensorPayload) elemCount() uint64 {
	n := uint64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// WriteStore lays out a complete container: model info, tensor data and the
// tensor index referencing it. It is the single writer entry point used by
// the pack command and by tests.
func WriteStore(f *os.File, info ModelInfo, tensors []TensorPayload) error {
	if len(tensors) == 0 {
		return errors.New("tcw: store requires at least one tensor")
	}

	w, err := NewWriter(f)
	if err != nil {
		return err
	}

	infoSec, err := EncodeModelInfoSection(info)
	if err != nil {
		return err
	}
	if err := w.WriteSection(SectionModelInfo, ModelInfoVersion, infoSec); err != nil {
		return err
	}

	// Tensor data: 8-byte aligned per tensor, offsets recorded relative to the
	// blob start and fixed up once the section offset is known.
	var blob []byte
	type placed struct {
		rec TensorIndexRecord
		off uint64
	}
	records := make([]placed, 0, len(tensors))
	for i := range tensors {
		t := &tensors[i]
		if uint64(len(t.Data)) != t.elemCount() {
			return fmt.Errorf("tcw: tensor %q data length %d does not match shape %v",
				t.Name, len(t.Data), t.Shape)
		}
		enc, err := EncodeFloats(t.DType, t.Data)
		if err != nil {
			return err
		}
		if pad := (tcwAlign - len(blob)%tcwAlign) % tcwAlign; pad > 0 {
			blob = append(blob, make([]byte, pad)...)
		}
		records = append(records, placed{
			rec: TensorIndexRecord{
				Name:     t.Name,
				DType:    t.DType,
				Shape:    t.Shape,
				DataSize: uint64(len(enc)),
			},
			off: uint64(len(blob)),
		})
		blob = append(blob, enc...)
	}
	if err := w.WriteSection(SectionTensorData, 1, blob); err != nil {
		return err
	}
	dataBase := w.sections[len(w.sections)-1].Offset

	recs := make([]TensorIndexRecord, len(records))
	for i, p := range records {
		p.rec.DataOff = dataBase + p.off
		recs[i] = p.rec
	}
	indexSec, err := EncodeTensorIndexSection(recs)
	if err != nil {
		return err
	}
	if err := w.WriteSection(SectionTensorIndex, TensorIndexVersion, indexSec); err != nil {
		return err
	}
	return w.Finalise()
}

// ReadModelInfo parses the model info section of an open container.
func (f *File) ReadModelInfo() (ModelInfo, error) {
	sec := f.Section(SectionModelInfo)
	if sec == nil {
		return ModelInfo{}, fmt.Errorf("%w: missing model info section", ErrCorruptFile)
	}
	return ParseModelInfoSection(f.SectionData(sec))
}

// ReadTensorIndex parses the tensor index section of an open container.
func (f *File) ReadTensorIndex() (*TensorIndex, error) {
	sec := f.Section(SectionTensorIndex)
	if sec == nil {
		return nil, fmt.Errorf("%w: missing tensor index section", ErrCorruptFile)
	}
	return ParseTensorIndexSection(f.SectionData(sec))
}
