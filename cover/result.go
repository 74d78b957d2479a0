package cover

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/domino14/setcover/instance"
)

var (
	// ErrInfeasible means the subset collection cannot cover the universe.
	ErrInfeasible = errors.New("universe cannot be covered")
	// ErrInvalidSelection is returned by Verify.
	ErrInvalidSelection = errors.New("selection is not a cover")
)

// InfeasibleError carries the greedy partial cover that exposed an
// uncoverable universe. errors.Is(err, ErrInfeasible) holds for it.
type InfeasibleError struct {
	// Uncovered elements, 0-based.
	Uncovered []int
	// Partial is the best partial selection that was built.
	Partial []int
}

func (e *InfeasibleError) Error() string {
	show := e.Uncovered
	if len(show) > 5 {
		show = show[:5]
	}
	ids := lo.Map(show, func(el int, _ int) string { return fmt.Sprint(el + 1) })
	more := ""
	if len(e.Uncovered) > len(show) {
		more = ", ..."
	}
	return fmt.Sprintf("%v: %d element(s) uncovered (elements %s%s) after selecting %d subsets",
		ErrInfeasible, len(e.Uncovered), strings.Join(ids, ", "), more, len(e.Partial))
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

// Termination says why a search stopped.
type Termination int

const (
	// Completed means the strategy ran to its natural end: the one-shot
	// greedy construction, or a local search whose incumbent already sits at
	// the trivial lower bound.
	Completed Termination = iota
	// Exhausted means the branch-and-bound frontier emptied.
	Exhausted
	// Cutoff means the deadline passed or the context was cancelled.
	Cutoff
	// IterationLimit means a configured iteration cap was hit.
	IterationLimit
	// Cooled means the annealing temperature reached its floor.
	Cooled
)

func (t Termination) String() string {
	switch t {
	case Completed:
		return "completed"
	case Exhausted:
		return "exhausted"
	case Cutoff:
		return "cutoff"
	case IterationLimit:
		return "iteration-limit"
	case Cooled:
		return "cooled"
	}
	return fmt.Sprintf("termination(%d)", int(t))
}

// Result is what every strategy hands back to the driver.
type Result struct {
	Strategy    string
	Selection   []int
	Cost        int
	Trace       *Trace
	Termination Termination
	// Proven is set only by branch-and-bound, when the frontier emptied and
	// the frontier cap never dropped a node. Cost is then optimal.
	Proven bool
	// FrontierDrops counts nodes refused because the frontier was full.
	FrontierDrops uint64
	Iterations    uint64
	Elapsed       time.Duration
}

// NewResult fills Selection and Cost from sel.
func NewResult(strategy string, sel []int, trace *Trace, term Termination) *Result {
	c := Canonical(sel)
	return &Result{
		Strategy:    strategy,
		Selection:   c,
		Cost:        len(c),
		Trace:       trace,
		Termination: term,
	}
}

// Verify checks that every index of sel is a valid subset and that their
// union is exactly the universe.
func Verify(inst *instance.Instance, sel []int) error {
	for _, i := range sel {
		if i < 0 || i >= inst.M() {
			return fmt.Errorf("%w: subset index %d out of range 0..%d", ErrInvalidSelection, i, inst.M()-1)
		}
	}
	cov := CoverageOf(inst, sel)
	if !cov.Covered() {
		return fmt.Errorf("%w: %d element(s) uncovered", ErrInvalidSelection, cov.UncoveredCount())
	}
	return nil
}
