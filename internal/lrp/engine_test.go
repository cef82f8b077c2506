package lrp

import (
	"errors"
	"math"
	"testing"

	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/toy"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

// conservativeToy builds a toy model whose backward chain conserves exactly:
// the biases on the layers the relevance pass crosses are zeroed so nothing
// is absorbed outside the inputs.
func conservativeToy(t *testing.T, taskType, transform string) *model.Model {
	t.Helper()
	m, err := toy.Model(taskType, transform, 7, 0)
	if err != nil {
		t.Fatalf("build toy model: %v", err)
	}
	zero := func(b []float64) {
		for i := range b {
			b[i] = 0
		}
	}
	zero(m.Out.B)
	zero(m.HighwayTransform.B)
	zero(m.Fuse.B)
	for i := range m.Convs {
		zero(m.Convs[i].B)
	}
	return m
}

func run(t *testing.T, m *model.Model, s string) (*model.Trace, []float64, Report) {
	t.Helper()
	toks, err := vocab.Encode(s)
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	tr, err := m.Forward(toks)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	rel, report, err := Propagate(m, tr, logger.Discard())
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	return tr, rel, report
}

func TestPropagateConservesScore(t *testing.T) {
	t.Parallel()
	m := conservativeToy(t, tcw.TaskRegression, "identity")

	for _, s := range []string{"CCO", "c1ccccc1", "CC(=O)Nc1ccc(O)cc1"} {
		tr, rel, _ := run(t, m, s)
		if len(rel) != tr.NN {
			t.Fatalf("%q: relevance length %d, want %d", s, len(rel), tr.NN)
		}
		sum := 0.0
		for _, v := range rel {
			sum += v
		}
		tol := 1e-6 * math.Max(1, math.Abs(tr.Score))
		if math.Abs(sum-tr.Score) > tol {
			t.Fatalf("%q: relevance sums to %v, score %v", s, sum, tr.Score)
		}
	}
}

// The relevance budget is the post-transform score: with an exp transform
// the per-character values sum to exp(raw), not to the raw output.
func TestPropagateBudgetIsTransformedScore(t *testing.T) {
	t.Parallel()
	m := conservativeToy(t, tcw.TaskRegression, "exp")

	tr, rel, _ := run(t, m, "CCO")
	sum := 0.0
	for _, v := range rel {
		sum += v
	}
	if math.Abs(sum-tr.Score) > 1e-6*tr.Score {
		t.Fatalf("relevance sums to %v, transformed score %v", sum, tr.Score)
	}
	if tr.Score == tr.Raw {
		t.Fatal("transform was not applied")
	}
}

func TestPropagateDeterministic(t *testing.T) {
	t.Parallel()
	m := conservativeToy(t, tcw.TaskRegression, "identity")

	_, first, _ := run(t, m, "CCN(CC)CC")
	_, second, _ := run(t, m, "CCN(CC)CC")
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("relevance differs at position %d", i)
		}
	}
}

func TestPropagateReportsSteps(t *testing.T) {
	t.Parallel()
	m := conservativeToy(t, tcw.TaskRegression, "identity")

	_, _, report := run(t, m, "CCO")
	names := make(map[string]bool, len(report))
	for _, s := range report {
		names[s.Name] = true
	}
	for _, want := range []string{"output", "highway", "fuse", "depool", "conv.1", "conv.20", "total"} {
		if !names[want] {
			t.Fatalf("report is missing step %q", want)
		}
	}
	if drifting := report.Drifting(); len(drifting) != 0 {
		t.Fatalf("zero-bias chain drifted: %+v", drifting)
	}
}

func TestPropagateNaNIsFatal(t *testing.T) {
	t.Parallel()
	m := conservativeToy(t, tcw.TaskRegression, "identity")
	toks, err := vocab.Encode("CCO")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tr, err := m.Forward(toks)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	// Poison the output weights after the forward pass so only the
	// backward pass sees the NaN.
	for i := range m.Out.W.Data {
		m.Out.W.Data[i] = math.NaN()
	}
	_, _, err = Propagate(m, tr, logger.Discard())
	if !errors.Is(err, model.ErrNumeric) {
		t.Fatalf("got %v, want ErrNumeric", err)
	}
}
