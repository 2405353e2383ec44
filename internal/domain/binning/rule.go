// Package binning sorts continuous request attributes into the discrete buckets
// ("tramos") the scoring model was trained on.
//
// Every rule is an ordered list of bins evaluated first-match-wins with an
// explicit fallback label. Bin edges, including the gaps that fall through to
// the fallback, are calibration artifacts of training and must not be changed.
package binning

// NotAvailable is the fallback label shared by every bucket enumeration.
const NotAvailable = "N/A"

// Bin pairs a predicate with the label it assigns.
type Bin[V any, L ~string] struct {
	Label L
	Match func(V) bool
}

// Rule is an ordered, first-match-wins list of bins.
type Rule[V any, L ~string] struct {
	name     string
	bins     []Bin[V, L]
	fallback L
}

// NewRule builds a rule that evaluates bins in the given order.
func NewRule[V any, L ~string](name string, fallback L, bins ...Bin[V, L]) Rule[V, L] {
	return Rule[V, L]{
		name:     name,
		bins:     bins,
		fallback: fallback,
	}
}

// Name returns the artifact feature name the rule feeds.
func (r Rule[V, L]) Name() string {
	return r.name
}

// Assign returns the label of the first matching bin, or the fallback.
func (r Rule[V, L]) Assign(v V) L {
	for _, b := range r.bins {
		if b.Match(v) {
			return b.Label
		}
	}
	return r.fallback
}

// Labels returns the bin labels in evaluation order, fallback excluded.
func (r Rule[V, L]) Labels() []L {
	labels := make([]L, 0, len(r.bins))
	for _, b := range r.bins {
		labels = append(labels, b.Label)
	}
	return labels
}

// Fallback returns the label used when no bin matches.
func (r Rule[V, L]) Fallback() L {
	return r.fallback
}

func intAtMost(max int) func(int) bool {
	return func(v int) bool { return v <= max }
}

func intBetween(min, max int) func(int) bool {
	return func(v int) bool { return v >= min && v <= max }
}

func intEquals(want int) func(int) bool {
	return func(v int) bool { return v == want }
}
