package density

// Weights holds the relative appearance probabilities of the three cloud
// types mixed into the procedural target shape.
type Weights struct {
	Cumulus       float32
	Stratus       float32
	Stratocumulus float32
}

// DefaultWeights is used when every supplied weight is zero.
var DefaultWeights = Weights{Cumulus: 0.4, Stratus: 0.3, Stratocumulus: 0.3}

// Sum returns the total of the three weights.
func (w Weights) Sum() float32 { return w.Cumulus + w.Stratus + w.Stratocumulus }

// NormalizeWeights scales the weights so they total 1. Negative inputs count
// as zero; an all-zero input yields DefaultWeights.
func NormalizeWeights(cumulus, stratus, stratocumulus float32) Weights {
	w := Weights{
		Cumulus:       nonNegative(cumulus),
		Stratus:       nonNegative(stratus),
		Stratocumulus: nonNegative(stratocumulus),
	}
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights
	}
	return Weights{
		Cumulus:       w.Cumulus / sum,
		Stratus:       w.Stratus / sum,
		Stratocumulus: w.Stratocumulus / sum,
	}
}

func nonNegative(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
