package rrepr

import (
	"math"

	"github.com/qri-io/rrepr/zarr"
)

// DefaultDigits is the number of decimal places float payloads keep
const DefaultDigits = 1

// RoundPayload rounds every element of a float array half-to-even at digits
// decimal places. Arrays of any other element kind come back unchanged.
func RoundPayload(v *zarr.Values, digits int) *zarr.Values {
	if v == nil || !v.Dtype().IsFloat() {
		return v
	}
	return v.MapFloat64(func(x float64) float64 { return roundHalfEven(x, digits) })
}

func roundHalfEven(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	if digits < 0 {
		p := math.Pow10(-digits)
		return math.RoundToEven(x/p) * p
	}
	p := math.Pow10(digits)
	scaled := x * p
	if math.IsInf(scaled, 0) {
		return x
	}
	return math.RoundToEven(scaled) / p
}

// DeparseVariable pairs a copy of a variable's dimension names with its
// rounded payload
func DeparseVariable(v zarr.Variable, digits int) zarr.Variable {
	return zarr.Variable{
		Name: v.Name,
		Dims: append([]string{}, v.Dims...),
		Data: RoundPayload(v.Data, digits),
		Meta: v.Meta.Copy(),
	}
}

// DeparseVariables deparses every variable, keeping their order
func DeparseVariables(vs zarr.Variables, digits int) zarr.Variables {
	out := make(zarr.Variables, len(vs))
	for i, v := range vs {
		out[i] = DeparseVariable(v, digits)
	}
	return out
}

// dropMeta strips descriptive attributes from every variable
func dropMeta(vs zarr.Variables) zarr.Variables {
	out := make(zarr.Variables, len(vs))
	for i, v := range vs {
		v.Meta = nil
		out[i] = v
	}
	return out
}
