package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/toy"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

func buildToy(t *testing.T, taskType, transform string) *model.Model {
	t.Helper()
	m, err := toy.Model(taskType, transform, 7, 0)
	if err != nil {
		t.Fatalf("build toy model: %v", err)
	}
	return m
}

func encode(t *testing.T, s string) []int {
	t.Helper()
	toks, err := vocab.Encode(s)
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	return toks
}

func TestForwardDeterministic(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "identity")
	toks := encode(t, "CCO")

	first, err := m.Forward(toks)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for i := 0; i < 3; i++ {
		tr, err := m.Forward(toks)
		if err != nil {
			t.Fatalf("forward %d: %v", i, err)
		}
		if tr.Score != first.Score {
			t.Fatalf("run %d score %v, want %v", i, tr.Score, first.Score)
		}
	}
}

func TestForwardTraceShapes(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "identity")
	toks := encode(t, "c1ccccc1O")

	tr, err := m.Forward(toks)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if tr.N != len(toks) {
		t.Fatalf("N = %d, want %d", tr.N, len(toks))
	}
	if tr.NN != tr.N+model.ConvPad {
		t.Fatalf("NN = %d, want %d", tr.NN, tr.N+model.ConvPad)
	}
	if tr.Embedded.R != tr.NN || tr.Embedded.C != model.EmbeddingDim {
		t.Fatalf("embedded shape %dx%d", tr.Embedded.R, tr.Embedded.C)
	}
	if len(tr.Concat) != model.ConvConcat {
		t.Fatalf("concat length %d, want %d", len(tr.Concat), model.ConvConcat)
	}
	for i, ct := range tr.Convs {
		windows := tr.NN - model.ConvWidths[i] + 1
		if ct.Pre.R != windows {
			t.Fatalf("conv %d: %d windows, want %d", i, ct.Pre.R, windows)
		}
		for c, at := range ct.Argmax {
			if at < 0 || at >= windows {
				t.Fatalf("conv %d channel %d: argmax %d out of range", i, c, at)
			}
			if got := ct.Pre.At(at, c); got != ct.Pooled[c] {
				t.Fatalf("conv %d channel %d: pooled %v but argmax row holds %v", i, c, ct.Pooled[c], got)
			}
		}
	}
}

// Attention rows must be distributions over the valid prefix with zero mass
// on padding positions, for every head of every block.
func TestForwardAttentionMasksPadding(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "identity")
	toks := encode(t, "CC(=O)N")

	tr, err := m.Forward(toks)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for b := range tr.Blocks {
		for h := range tr.Blocks[b].Attn {
			attn := &tr.Blocks[b].Attn[h]
			for i := 0; i < tr.NN; i++ {
				row := attn.Row(i)
				var sum float64
				for j := 0; j < tr.N; j++ {
					sum += row[j]
				}
				if math.Abs(sum-1) > 1e-12 {
					t.Fatalf("block %d head %d row %d sums to %v", b, h, i, sum)
				}
				for j := tr.N; j < tr.NN; j++ {
					if row[j] != 0 {
						t.Fatalf("block %d head %d row %d attends to padding column %d", b, h, i, j)
					}
				}
			}
		}
	}
}

func TestForwardClassificationRawInUnitInterval(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskClassification, "identity")

	tr, err := m.Forward(encode(t, "CCN(CC)CC"))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if tr.Raw <= 0 || tr.Raw >= 1 {
		t.Fatalf("classification raw score %v outside (0,1)", tr.Raw)
	}
}

func TestForwardAppliesOutputTransform(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "pow10")

	tr, err := m.Forward(encode(t, "CCO"))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if want := math.Pow(10, tr.Raw); tr.Score != want {
		t.Fatalf("score %v, want pow10(raw) = %v", tr.Score, want)
	}
}

func TestForwardInputLimit(t *testing.T) {
	t.Parallel()
	m, err := toy.Model(tcw.TaskRegression, "identity", 7, 4)
	if err != nil {
		t.Fatalf("build toy model: %v", err)
	}
	if _, err := m.Forward(encode(t, "CCCCC")); !errors.Is(err, model.ErrInputTooLong) {
		t.Fatalf("got %v, want ErrInputTooLong", err)
	}
	if _, err := m.Forward(encode(t, "CCCC")); err != nil {
		t.Fatalf("input at the limit failed: %v", err)
	}
}

func TestForwardRejectsBadTokens(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "identity")

	if _, err := m.Forward(nil); err == nil {
		t.Fatal("empty input accepted")
	}
	if _, err := m.Forward([]int{3, vocab.Size}); err == nil {
		t.Fatal("out-of-range token accepted")
	}
	if _, err := m.Forward([]int{3, -1}); err == nil {
		t.Fatal("negative token accepted")
	}
}

func TestForwardReportsNumericStage(t *testing.T) {
	t.Parallel()
	m := buildToy(t, tcw.TaskRegression, "identity")
	m.Fuse.B[0] = math.NaN()

	_, err := m.Forward(encode(t, "CCO"))
	if !errors.Is(err, model.ErrNumeric) {
		t.Fatalf("got %v, want ErrNumeric", err)
	}
	var ne *model.NumericError
	if !errors.As(err, &ne) {
		t.Fatalf("error %T does not carry a stage", err)
	}
	if ne.Stage != "fuse" {
		t.Fatalf("stage %q, want fuse", ne.Stage)
	}
}
