package api

import (
	"github.com/alexarnimueller/transformer-cnn/internal/explain"
	"github.com/alexarnimueller/transformer-cnn/internal/lrp"
)

type PredictRequest struct {
	Input string `json:"input"`
}

type PredictResponse struct {
	ID           string             `json:"id"`
	Input        string             `json:"input"`
	Score        float64            `json:"score"`
	Raw          float64            `json:"raw"`
	Unit         string             `json:"unit,omitempty"`
	Chart        []explain.ChartRow `json:"chart"`
	Conservation lrp.Report         `json:"conservation,omitempty"`
}

// ExplainRequest carries a rooting table: one serialization per atom, rooted
// at that atom, index-aligned with the atom symbols.
type ExplainRequest struct {
	Input  string   `json:"input"`
	Atoms  []string `json:"atoms"`
	Rooted []string `json:"rooted"`
}

type ExplainResponse struct {
	ID        string                  `json:"id"`
	Input     string                  `json:"input"`
	Mean      float64                 `json:"mean"`
	Std       float64                 `json:"std"`
	HalfWidth float64                 `json:"half_width"`
	Unit      string                  `json:"unit,omitempty"`
	Values    []float64               `json:"values"`
	Atoms     []explain.AtomRelevance `json:"atoms"`
	Chart     []explain.ChartRow      `json:"chart"`
}

type ModelResponse struct {
	TaskName        string `json:"task_name"`
	TaskType        string `json:"task_type"`
	OutputTransform string `json:"output_transform"`
	OutputUnit      string `json:"output_unit,omitempty"`
	MaxInput        int    `json:"max_input"`
}

// ResponseError is the error payload inside the error envelope.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
