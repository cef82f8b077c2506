package explain

import (
	"context"

	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/lrp"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
)

// Prediction is one single-string prediction with its per-token relevance.
type Prediction struct {
	// Score is the post-transform prediction, Raw the network output before
	// the transform (after the classification sigmoid when applicable).
	Score float64 `json:"score"`
	Raw   float64 `json:"raw"`

	// Chart holds one row per input token with the relevance of its
	// character span.
	Chart []ChartRow `json:"chart"`

	// Conservation is the per-step relevance bookkeeping of the backward
	// pass.
	Conservation lrp.Report `json:"conservation,omitempty"`
}

// Predict scores one string and attributes the result to its tokens.
func Predict(ctx context.Context, m *model.Model, s string) (*Prediction, error) {
	toks, err := vocab.Encode(s)
	if err != nil {
		return nil, err
	}
	tr, err := m.Forward(toks)
	if err != nil {
		return nil, err
	}
	rel, report, err := lrp.Propagate(m, tr, logger.FromContext(ctx))
	if err != nil {
		return nil, err
	}

	p := &Prediction{Score: tr.Score, Raw: tr.Raw, Conservation: report}
	pos := 0
	for _, tok := range vocab.Tokenize(s) {
		row := ChartRow{Token: tok}
		for j := 0; j < len(tok) && pos+j < len(rel); j++ {
			row.Relevance += rel[pos+j]
		}
		pos += len(tok)
		p.Chart = append(p.Chart, row)
	}
	return p, nil
}
