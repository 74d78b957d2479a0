// Package stats keeps running statistics over repeated runs, such as the
// final costs of one instance under several seeds.
package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford) with extremes.
type Statistic struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (s *Statistic) Push(val float64) {
	s.n++
	if s.n == 1 {
		s.mean, s.m2 = val, 0
		s.min, s.max = val, val
		return
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	s.min = math.Min(s.min, val)
	s.max = math.Max(s.max, val)
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

// Variance is the sample variance; zero for fewer than two samples.
func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

// Min and Max are zero before the first Push.
func (s *Statistic) Min() float64 { return s.min }
func (s *Statistic) Max() float64 { return s.max }

func (s *Statistic) Iterations() int {
	return s.n
}

// ConfidenceInterval is mean ± z·SE for a two-tailed interval of the given
// percentage (e.g. 95).
func (s *Statistic) ConfidenceInterval(pct float64) (lo, hi float64) {
	half := ZVal(pct) * s.StandardError()
	return s.mean - half, s.mean + half
}
