package onchain

import "fmt"

// Bound is the assumed [Min, Max] range used to min-max normalize an indicator.
type Bound struct {
	Name string
	Min  float64
	Max  float64
}

var (
	RSIBound       = Bound{Name: "rsi", Min: 0, Max: 100}
	PuellBound     = Bound{Name: "puell_multiple", Min: 0, Max: 3.5}
	NUPLBound      = Bound{Name: "nupl", Min: -0.8, Max: 0.8}
	MVRVBound      = Bound{Name: "mvrv", Min: 0, Max: 5}
	UPDIShortBound = Bound{Name: "updi_short", Min: -4, Max: 4}
)

// Inputs are the five indicators that feed the on-chain index.
type Inputs struct {
	RSI       float64
	Puell     float64
	NUPL      float64
	MVRV      float64
	UPDIShort float64
}

// BoundViolation describes an input lying outside its assumed range.
type BoundViolation struct {
	Bound Bound
	Value float64
}

func (v BoundViolation) String() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", v.Bound.Name, v.Value, v.Bound.Min, v.Bound.Max)
}

// Normalize maps v linearly so that b.Min -> 0 and b.Max -> 1. Values outside
// the bound map outside [0, 1]; nothing is clamped.
func Normalize(v float64, b Bound) float64 {
	return (v - b.Min) / (b.Max - b.Min)
}

// NormalizedTerms returns the five normalized terms in the order
// rsi, puell, nupl, mvrv, updi_short.
func NormalizedTerms(in Inputs) []float64 {
	return []float64{
		Normalize(in.RSI, RSIBound),
		Normalize(in.Puell, PuellBound),
		Normalize(in.NUPL, NUPLBound),
		Normalize(in.MVRV, MVRVBound),
		Normalize(in.UPDIShort, UPDIShortBound),
	}
}

// Mean is the unweighted arithmetic mean; it returns 0 for no values.
func Mean(vals ...float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// ComputeIndex returns the on-chain index: the mean of the five min-max
// normalized indicators. The result lies in [0, 1] only when every input is
// within its bound; use CheckBounds to detect the other case.
func ComputeIndex(rsi, puell, nupl, mvrv, updiShort float64) float64 {
	return Compute(Inputs{RSI: rsi, Puell: puell, NUPL: nupl, MVRV: mvrv, UPDIShort: updiShort})
}

// Compute is ComputeIndex over an Inputs value.
func Compute(in Inputs) float64 {
	return Mean(NormalizedTerms(in)...)
}

// CheckBounds lists every input outside its assumed range, in input order.
func CheckBounds(in Inputs) []BoundViolation {
	pairs := []struct {
		v float64
		b Bound
	}{
		{in.RSI, RSIBound},
		{in.Puell, PuellBound},
		{in.NUPL, NUPLBound},
		{in.MVRV, MVRVBound},
		{in.UPDIShort, UPDIShortBound},
	}

	var out []BoundViolation
	for _, p := range pairs {
		if p.v < p.b.Min || p.v > p.b.Max {
			out = append(out, BoundViolation{Bound: p.b, Value: p.v})
		}
	}
	return out
}
