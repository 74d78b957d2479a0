package runner

import (
	"fmt"
	"strings"

	"github.com/domino14/setcover/cover"
)

// ShowResult is a human-readable summary of a finished run.
func ShowResult(instName string, res *cover.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s on %s: cost %d (%v", res.Strategy, instName, res.Cost, res.Termination)
	if res.Proven {
		sb.WriteString(", optimal")
	}
	if res.FrontierDrops > 0 {
		fmt.Fprintf(&sb, ", %d frontier drops", res.FrontierDrops)
	}
	fmt.Fprintf(&sb, ") in %.2fs", res.Elapsed.Seconds())
	if res.Iterations > 0 {
		fmt.Fprintf(&sb, ", %d iterations", res.Iterations)
	}
	fmt.Fprintf(&sb, ", %d improvements", res.Trace.Len()-1)
	return sb.String()
}
