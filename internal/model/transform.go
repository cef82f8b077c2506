package model

import (
	"fmt"
	"math"
)

// Transform is the closed enumeration of output post-transforms. A store
// selects one by metadata tag; there is no data-driven code execution.
type Transform uint8

const (
	TransformIdentity Transform = iota
	TransformExp
	TransformPow10
	TransformReciprocal
)

// ParseTransform maps a metadata tag to its Transform. Unknown tags are a
// load-time error.
func ParseTransform(tag string) (Transform, error) {
	switch tag {
	case "identity", "":
		return TransformIdentity, nil
	case "exp":
		return TransformExp, nil
	case "pow10":
		return TransformPow10, nil
	case "reciprocal":
		return TransformReciprocal, nil
	default:
		return 0, fmt.Errorf("model: unknown output transform %q", tag)
	}
}

// Apply maps the raw network output to the reported value.
func (t Transform) Apply(x float64) float64 {
	switch t {
	case TransformExp:
		return math.Exp(x)
	case TransformPow10:
		return math.Pow(10, x)
	case TransformReciprocal:
		return 1 / x
	default:
		return x
	}
}

func (t Transform) String() string {
	switch t {
	case TransformExp:
		return "exp"
	case TransformPow10:
		return "pow10"
	case TransformReciprocal:
		return "reciprocal"
	default:
		return "identity"
	}
}
