package automatic

import (
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/domino14/setcover/artifact"
	"github.com/domino14/setcover/stats"
)

const (
	histogramBins  = 10
	histogramWidth = 40
	confidencePct  = 95
)

// InstanceSummary aggregates the runs of one instance.
type InstanceSummary struct {
	Instance   string
	Runs       []RunRecord
	Cost       stats.Statistic
	TimeToBest stats.Statistic
	// RelError is only filled when the optimum is known.
	RelError   stats.Statistic
	Optimum    int
	HasOptimum bool
}

func NewInstanceSummary(name string) *InstanceSummary {
	return &InstanceSummary{Instance: name}
}

// SetOptimum must be called before the first Add.
func (s *InstanceSummary) SetOptimum(opt int) {
	s.Optimum = opt
	s.HasOptimum = true
}

func (s *InstanceSummary) Add(rec RunRecord) {
	s.Runs = append(s.Runs, rec)
	s.Cost.Push(float64(rec.Cost))
	s.TimeToBest.Push(rec.TimeToBest.Seconds())
	if s.HasOptimum {
		s.RelError.Push(artifact.RelativeError(rec.Cost, s.Optimum))
	}
}

// BestCost is the cheapest cover found over all runs.
func (s *InstanceSummary) BestCost() int {
	return int(s.Cost.Min())
}

// Fprint writes a plain-text report, with a histogram of final costs when
// the runs disagree.
func (s *InstanceSummary) Fprint(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Instance: %s (%d runs)\n", s.Instance, s.Cost.Iterations())
	lo95, hi95 := s.Cost.ConfidenceInterval(confidencePct)
	fmt.Fprintf(&sb, "Cost: best %d  mean %.2f  stdev %.2f  %d%% CI [%.2f, %.2f]\n",
		s.BestCost(), s.Cost.Mean(), s.Cost.Stdev(), confidencePct, lo95, hi95)
	fmt.Fprintf(&sb, "Time to best: mean %.2fs  stdev %.2fs\n",
		s.TimeToBest.Mean(), s.TimeToBest.Stdev())
	if s.HasOptimum {
		fmt.Fprintf(&sb, "Optimum: %d  mean relative error %.4f\n", s.Optimum, s.RelError.Mean())
	}
	proven := lo.CountBy(s.Runs, func(r RunRecord) bool { return r.Proven })
	if proven > 0 {
		fmt.Fprintf(&sb, "Proven optimal in %d run(s)\n", proven)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	if s.Cost.Min() == s.Cost.Max() {
		return nil
	}
	costs := lo.Map(s.Runs, func(r RunRecord, _ int) float64 { return float64(r.Cost) })
	return histogram.Fprint(w, histogram.Hist(histogramBins, costs), histogram.Linear(histogramWidth))
}
