package runner

import (
	"errors"
	"fmt"

	"github.com/domino14/setcover/anneal"
	"github.com/domino14/setcover/bnb"
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/hillclimb"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

type Strategy int

const (
	BranchAndBound Strategy = iota
	Approximation
	HillClimbing
	SimulatedAnnealing
)

var strategies = []Strategy{BranchAndBound, Approximation, HillClimbing, SimulatedAnnealing}

func (s Strategy) String() string {
	switch s {
	case BranchAndBound:
		return bnb.StrategyName
	case Approximation:
		return greedy.StrategyName
	case HillClimbing:
		return hillclimb.StrategyName
	case SimulatedAnnealing:
		return anneal.StrategyName
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Short is the name used on the command line and in artifact names.
func (s Strategy) Short() string {
	switch s {
	case BranchAndBound:
		return "BnB"
	case Approximation:
		return "Approx"
	case HillClimbing:
		return "LS1"
	case SimulatedAnnealing:
		return "LS2"
	}
	return s.String()
}

// Randomized reports whether the seed affects the strategy.
func (s Strategy) Randomized() bool {
	return s == HillClimbing || s == SimulatedAnnealing
}

