package gesture

import "sort"

// Smoothing defaults.
const (
	DefaultSmoothingFactor = 0.8
	DefaultHistory         = 5
)

// Smoother is an exponentially weighted moving average over a bounded
// history. The newest sample has weight 1 and each older one is worth Factor
// times the next newer one. The zero value uses the defaults.
type Smoother struct {
	Factor  float64
	Size    int
	history []float64
}

// NewSmoother returns a smoother with the given decay factor and history size.
func NewSmoother(factor float64, size int) *Smoother {
	return &Smoother{Factor: factor, Size: size}
}

// Add records v and returns the smoothed value.
func (s *Smoother) Add(v float64) float64 {
	size := s.Size
	if size <= 0 {
		size = DefaultHistory
	}
	factor := s.Factor
	if factor <= 0 || factor > 1 {
		factor = DefaultSmoothingFactor
	}

	s.history = append(s.history, v)
	if len(s.history) > size {
		s.history = s.history[len(s.history)-size:]
	}

	var sum, total float64
	w := 1.0
	for i := len(s.history) - 1; i >= 0; i-- {
		sum += s.history[i] * w
		total += w
		w *= factor
	}
	return sum / total
}

// Len returns the number of samples in the history.
func (s *Smoother) Len() int { return len(s.history) }

// Reset clears the history.
func (s *Smoother) Reset() { s.history = s.history[:0] }

// median returns the median of values without modifying it.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
