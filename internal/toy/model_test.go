package toy

import (
	"testing"

	"github.com/alexarnimueller/transformer-cnn/internal/model"
)

func TestTensorsDeterministic(t *testing.T) {
	t.Parallel()
	a := Tensors(42)
	b := Tensors(42)
	if len(a) != model.NumTensors {
		t.Fatalf("generated %d tensors, want %d", len(a), model.NumTensors)
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("tensor %d name mismatch", i)
		}
		for j := range a[i].Data {
			if a[i].Data[j] != b[i].Data[j] {
				t.Fatalf("tensor %q differs at %d across runs", a[i].Name, j)
			}
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	t.Parallel()
	a := Tensors(1)
	b := Tensors(2)
	same := true
	for j := range a[0].Data {
		if a[0].Data[j] != b[0].Data[j] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical embedding tensors")
	}
}
