// Package greedy builds set covers by max-marginal-gain selection. It is the
// Approximation strategy and the warm start of every other strategy.
package greedy

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/instance"
)

const StrategyName = "Approximation"

// Repair completes cov in place: it repeatedly selects the non-selected
// subset covering the most currently-uncovered elements, lowest index first
// on ties, until everything is covered or no subset has positive gain. It
// returns the indices it added, in order.
func Repair(inst *instance.Instance, cov *cover.Coverage) []int {
	return RepairExcept(inst, cov, nil)
}

// RepairExcept is Repair that never selects a subset for which skip returns
// true. A nil skip bans nothing.
func RepairExcept(inst *instance.Instance, cov *cover.Coverage, skip func(i int) bool) []int {
	var added []int
	for !cov.Covered() {
		best, bestGain := -1, 0
		for i := 0; i < inst.M(); i++ {
			if cov.Contains(i) || inst.Size(i) <= bestGain {
				continue
			}
			if skip != nil && skip(i) {
				continue
			}
			if g := cov.Gain(i); g > bestGain {
				best, bestGain = i, g
			}
		}
		if best == -1 {
			break
		}
		cov.Add(best)
		added = append(added, best)
	}
	return added
}

// Construct returns a greedy cover of inst in selection order. If the
// universe cannot be covered it returns the partial selection together with
// a *cover.InfeasibleError. It is deterministic.
func Construct(inst *instance.Instance) ([]int, error) {
	cov := cover.NewCoverage(inst)
	sel := Repair(inst, cov)
	if !cov.Covered() {
		return sel, &cover.InfeasibleError{Uncovered: cov.Uncovered(), Partial: sel}
	}
	return sel, nil
}

// Approximate runs the greedy constructor as a stand-alone strategy.
func Approximate(ctx context.Context, inst *instance.Instance) (*cover.Result, error) {
	tstart := time.Now()
	sel, err := Construct(inst)
	if err != nil {
		log.Err(err).Str("instance", inst.Name).Msg("greedy-infeasible")
		return nil, err
	}
	res := cover.NewResult(StrategyName, sel, cover.NewTrace(len(sel)), cover.Completed)
	res.Elapsed = time.Since(tstart)
	log.Info().Str("instance", inst.Name).Int("cost", res.Cost).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).Msg("greedy-returning")
	return res, nil
}
