// Package explain drives whole-molecule explanations: one forward plus
// relevance pass per atom rooting, aggregated into a prediction with a
// confidence interval and one relevance score per atom.
package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/lrp"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
)

// Rooter supplies the per-atom serializations of one molecule. Rooting is
// external: the engine never parses molecules, it only consumes strings.
type Rooter interface {
	// NumAtoms reports the atom count.
	NumAtoms() int
	// Atom returns the symbol of atom i as it appears in serialized form.
	Atom(i int) string
	// Rooted returns the serialization rooted at atom i.
	Rooted(i int) (string, error)
}

// ErrNoAtoms reports an explanation request without any rootings.
var ErrNoAtoms = errors.New("explain: no atoms to explain")

// AtomRelevance is the relevance attributed to one atom.
type AtomRelevance struct {
	Index     int     `json:"index"`
	Symbol    string  `json:"symbol"`
	Relevance float64 `json:"relevance"`
}

// ChartRow is one bar of the per-character relevance chart: a token of the
// input string and the relevance mapped onto it. Bond, ring and branch
// tokens carry zero.
type ChartRow struct {
	Token     string  `json:"token"`
	Relevance float64 `json:"relevance"`
}

// Result aggregates the per-rooting passes of one molecule.
type Result struct {
	// Mean, Std and HalfWidth summarize the per-rooting predictions: the
	// population standard deviation and the 95% confidence half-width
	// 1.96·σ/√n.
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	HalfWidth float64 `json:"half_width"`

	// Values holds each rooting's post-transform prediction, atom-indexed.
	Values []float64 `json:"values"`

	Atoms []AtomRelevance `json:"atoms"`

	// Chart maps atom relevance back onto the tokens of the input string.
	Chart []ChartRow `json:"chart"`
}

// Options tunes one Run call.
type Options struct {
	// Workers bounds the number of concurrent passes; <= 0 selects
	// runtime.NumCPU().
	Workers int
}

// Run explains input by re-running the model once per atom rooting. All
// passes share the immutable model; each owns its trace. A numeric failure
// in any pass aborts the whole aggregation.
func Run(ctx context.Context, m *model.Model, input string, rooter Rooter, opts Options) (*Result, error) {
	n := rooter.NumAtoms()
	if n == 0 {
		return nil, ErrNoAtoms
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := logger.FromContext(ctx)

	values := make([]float64, n)
	impacts := make([]float64, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rooted, err := rooter.Rooted(i)
			if err != nil {
				return fmt.Errorf("atom %d: %w", i, err)
			}
			score, rel, err := pass(m, rooted, log)
			if err != nil {
				return fmt.Errorf("atom %d (%s): %w", i, rooter.Atom(i), err)
			}
			values[i] = score
			impacts[i] = rootRelevance(rooted, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Values: values}
	res.Mean, res.Std = meanStd(values)
	res.HalfWidth = 1.96 * res.Std / math.Sqrt(float64(n))

	res.Atoms = make([]AtomRelevance, n)
	for i := range res.Atoms {
		res.Atoms[i] = AtomRelevance{Index: i, Symbol: rooter.Atom(i), Relevance: impacts[i]}
	}

	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = rooter.Atom(i)
	}
	res.Chart = chartRows(input, symbols, impacts)
	return res, nil
}

// pass runs one forward plus relevance pass and returns the post-transform
// score with the per-position relevance vector.
func pass(m *model.Model, s string, log logger.Logger) (float64, []float64, error) {
	toks, err := vocab.Encode(s)
	if err != nil {
		return 0, nil, err
	}
	tr, err := m.Forward(toks)
	if err != nil {
		return 0, nil, err
	}
	rel, _, err := lrp.Propagate(m, tr, log)
	if err != nil {
		return 0, nil, err
	}
	return tr.Score, rel, nil
}

// rootRelevance sums the relevance over the character span of the rooted
// string's leading token, which is the root atom itself.
func rootRelevance(rooted string, rel []float64) float64 {
	toks := vocab.Tokenize(rooted)
	if len(toks) == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(toks[0]) && i < len(rel); i++ {
		sum += rel[i]
	}
	return sum
}

func meanStd(vals []float64) (mean, std float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std
}
