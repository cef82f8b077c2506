package model

import (
	"math"
	"testing"
)

func TestParseTransform(t *testing.T) {
	t.Parallel()
	cases := []struct {
		tag  string
		want Transform
	}{
		{"", TransformIdentity},
		{"identity", TransformIdentity},
		{"exp", TransformExp},
		{"pow10", TransformPow10},
		{"reciprocal", TransformReciprocal},
	}
	for _, tc := range cases {
		got, err := ParseTransform(tc.tag)
		if err != nil {
			t.Fatalf("ParseTransform(%q): %v", tc.tag, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTransform(%q) = %v, want %v", tc.tag, got, tc.want)
		}
	}
	if _, err := ParseTransform("log"); err == nil {
		t.Fatal("unknown tag accepted")
	}
}

func TestTransformApply(t *testing.T) {
	t.Parallel()
	const x = 1.5
	if got := TransformIdentity.Apply(x); got != x {
		t.Fatalf("identity(%v) = %v", x, got)
	}
	if got := TransformExp.Apply(x); got != math.Exp(x) {
		t.Fatalf("exp(%v) = %v", x, got)
	}
	if got := TransformPow10.Apply(x); got != math.Pow(10, x) {
		t.Fatalf("pow10(%v) = %v", x, got)
	}
	if got := TransformReciprocal.Apply(4); got != 0.25 {
		t.Fatalf("reciprocal(4) = %v", got)
	}
}

func TestConvOffsetsCoverConcat(t *testing.T) {
	t.Parallel()
	for i := 1; i < len(ConvWidths); i++ {
		if ConvOffset(i) != ConvOffset(i-1)+ConvChannels[i-1] {
			t.Fatalf("offset %d inconsistent", i)
		}
	}
	last := len(ConvWidths) - 1
	if ConvOffset(last)+ConvChannels[last] != ConvConcat {
		t.Fatal("offsets do not cover the concat width")
	}
}

func TestSchemaCountsAndShapes(t *testing.T) {
	t.Parallel()
	specs := Schema()
	if len(specs) != NumTensors {
		t.Fatalf("schema lists %d tensors, want %d", len(specs), NumTensors)
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			t.Fatalf("duplicate tensor name %q", s.Name)
		}
		seen[s.Name] = true
		for _, d := range s.Shape {
			if d <= 0 {
				t.Fatalf("tensor %q has non-positive dim", s.Name)
			}
		}
	}
}
