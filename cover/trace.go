package cover

import (
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// TraceEvent is one incumbent improvement.
type TraceEvent struct {
	Elapsed time.Duration
	Cost    int
}

// Trace records strict incumbent improvements in time order. The first event
// is always the initial feasible solution at elapsed 0.
type Trace struct {
	events []TraceEvent
}

// NewTrace starts a trace at the initial cost.
func NewTrace(initialCost int) *Trace {
	return &Trace{events: []TraceEvent{{Elapsed: 0, Cost: initialCost}}}
}

// Record appends (elapsed, cost) if cost strictly improves the last entry.
// Elapsed is forced to be strictly increasing. It returns whether the event
// was kept.
func (t *Trace) Record(elapsed time.Duration, cost int) bool {
	last := t.events[len(t.events)-1]
	if cost >= last.Cost {
		return false
	}
	if elapsed <= last.Elapsed {
		elapsed = last.Elapsed + time.Nanosecond
	}
	t.events = append(t.events, TraceEvent{Elapsed: elapsed, Cost: cost})
	return true
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []TraceEvent {
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Costs is the cost column of the trace.
func (t *Trace) Costs() []int {
	out := make([]int, len(t.events))
	for i, ev := range t.events {
		out[i] = ev.Cost
	}
	return out
}

// Len is the number of events.
func (t *Trace) Len() int { return len(t.events) }

// Best is the last (lowest) cost.
func (t *Trace) Best() TraceEvent { return t.events[len(t.events)-1] }

// LogImprovement is a single incumbent improvement, serialized to a log
// stream for debugging and later analysis.
type LogImprovement struct {
	Strategy   string  `yaml:"strategy"`
	Source     string  `yaml:"source"`
	ElapsedSec float64 `yaml:"elapsed"`
	Cost       int     `yaml:"cost"`
	Iteration  uint64  `yaml:"iteration,omitempty"`
	Selection  []int   `yaml:"selection,flow"`
}

// WriteLog writes ev to w as a one-element YAML list, so that a stream of
// events concatenates into one valid YAML document. A nil writer is a no-op.
func WriteLog(w io.Writer, ev LogImprovement) {
	if w == nil {
		return
	}
	out, err := yaml.Marshal([]LogImprovement{ev})
	if err != nil {
		log.Err(err).Msg("marshal-improvement")
		return
	}
	if _, err := w.Write(out); err != nil {
		log.Err(err).Msg("write-improvement")
	}
}
