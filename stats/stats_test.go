package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		costs    []int
		mean     float64
		stdev    float64
		min, max float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638, 10, 23},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891, 10, 124},
		{[]int{1}, 1, 0, 1, 1},
		{[]int{}, 0, 0, 0, 0},
		{[]int{1, 1}, 1, 0, 1, 1},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, cost := range c.costs {
			s.Push(float64(cost))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Min(), c.min)
		is.Equal(s.Max(), c.max)
		is.Equal(s.Iterations(), len(c.costs))
	}
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035489004))
}

func TestConfidenceInterval(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, v := range []float64{4, 4, 4, 4} {
		s.Push(v)
	}
	lo, hi := s.ConfidenceInterval(95)
	is.Equal(lo, 4.0)
	is.Equal(hi, 4.0)

	s = &Statistic{}
	for _, v := range []float64{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(v)
	}
	lo, hi = s.ConfidenceInterval(95)
	half := 1.959963984540054 * 5.2372293656638 / 2.8284271247461903
	is.True(FuzzyEqual(lo, 18-half))
	is.True(FuzzyEqual(hi, 18+half))
}
