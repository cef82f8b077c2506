package tcw

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ModelInfoVersion is the on-disk version of the model info section payload.
const ModelInfoVersion uint32 = 1

// Task types.
const (
	TaskRegression     = "regression"
	TaskClassification = "classification"
)

// ModelInfo is the metadata record of a container: what the model predicts
// and how the raw network output maps to the reported value. OutputTransform
// is a closed enumeration tag (see the model package), never executable code.
type ModelInfo struct {
	TaskName        string `json:"task_name"`
	TaskType        string `json:"task_type"`
	OutputTransform string `json:"output_transform"`
	OutputUnit      string `json:"output_unit"`
}

// Validate checks the structural constraints every container must satisfy.
func (mi *ModelInfo) Validate() error {
	if mi.TaskName == "" {
		return fmt.Errorf("tcw: model info missing task_name")
	}
	switch mi.TaskType {
	case TaskRegression, TaskClassification:
	default:
		return fmt.Errorf("tcw: unknown task_type %q", mi.TaskType)
	}
	if mi.OutputTransform == "" {
		return fmt.Errorf("tcw: model info missing output_transform")
	}
	return nil
}

// EncodeModelInfoSection serializes the metadata record as the model info
// section payload.
func EncodeModelInfoSection(mi ModelInfo) ([]byte, error) {
	if err := mi.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(mi)
}

// ParseModelInfoSection decodes and validates a model info section payload.
func ParseModelInfoSection(sec []byte) (ModelInfo, error) {
	var mi ModelInfo
	if err := json.Unmarshal(sec, &mi); err != nil {
		return ModelInfo{}, fmt.Errorf("%w: model info: %v", ErrCorruptFile, err)
	}
	if err := mi.Validate(); err != nil {
		return ModelInfo{}, err
	}
	return mi, nil
}
