package lrp

import "math"

// Tolerance is the relative conservation drift above which a step is
// reported as drifting. Drift is a diagnostic, never a failure.
const Tolerance = 1e-5

// Step records the relevance flowing into and out of one backward step.
type Step struct {
	Name string
	In   float64
	Out  float64
}

// Delta is the relevance lost (positive) or gained (negative) by the step.
func (s Step) Delta() float64 { return s.In - s.Out }

// Drift is the delta relative to the incoming relevance magnitude.
func (s Step) Drift() float64 {
	denom := math.Abs(s.In)
	if denom < 1 {
		denom = 1
	}
	return math.Abs(s.Delta()) / denom
}

// Report is the ordered list of conservation checks of one backward pass.
type Report []Step

// Drifting returns the steps whose drift exceeds Tolerance.
func (r Report) Drifting() []Step {
	var out []Step
	for _, s := range r {
		if s.Drift() > Tolerance {
			out = append(out, s)
		}
	}
	return out
}
