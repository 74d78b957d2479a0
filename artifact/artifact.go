// Package artifact reads and writes the files a run leaves behind: the
// solution (.sol), the improvement trace (.trace) and reference optima (.out).
package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/setcover/cover"
)

var ErrMalformed = errors.New("malformed artifact")

// Stem is the base name shared by a run's .sol and .trace files.
func Stem(instance, alg string, cutoffSec int, seed int64) string {
	return fmt.Sprintf("%s_%s_%d_%d", instance, alg, cutoffSec, seed)
}

// WriteSolution writes the cost on the first line and the selected subsets,
// 1-based and ascending, on the second.
func WriteSolution(w io.Writer, res *cover.Result) error {
	ids := lo.Map(res.Selection, func(i int, _ int) string { return strconv.Itoa(i + 1) })
	_, err := fmt.Fprintf(w, "%d\n%s\n", res.Cost, strings.Join(ids, " "))
	return err
}

// WriteTrace writes one "elapsed cost" line per improvement, elapsed in
// seconds with two decimals.
func WriteTrace(w io.Writer, trace *cover.Trace) error {
	bw := bufio.NewWriter(w)
	for _, ev := range trace.Events() {
		if _, err := fmt.Fprintf(bw, "%.2f %d\n", ev.Elapsed.Seconds(), ev.Cost); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFiles writes <dir>/<stem>.sol and <dir>/<stem>.trace, creating dir if
// needed. It returns the two paths.
func WriteFiles(dir, stem string, res *cover.Result) (solPath, tracePath string, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	solPath = filepath.Join(dir, stem+".sol")
	tracePath = filepath.Join(dir, stem+".trace")
	if err = writeFile(solPath, func(w io.Writer) error { return WriteSolution(w, res) }); err != nil {
		return "", "", err
	}
	if err = writeFile(tracePath, func(w io.Writer) error { return WriteTrace(w, res.Trace) }); err != nil {
		return "", "", err
	}
	log.Debug().Str("sol", solPath).Str("trace", tracePath).Msg("artifacts-written")
	return solPath, tracePath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSolution parses a .sol file back into its cost and 0-based selection.
func ReadSolution(r io.Reader) (int, []int, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return 0, nil, fmt.Errorf("%w: empty solution", ErrMalformed)
	}
	cost, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: cost line: %v", ErrMalformed, err)
	}
	var sel []int
	if sc.Scan() {
		for _, f := range strings.Fields(sc.Text()) {
			id, err := strconv.Atoi(f)
			if err != nil || id < 1 {
				return 0, nil, fmt.Errorf("%w: subset id %q", ErrMalformed, f)
			}
			sel = append(sel, id-1)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, nil, err
	}
	if len(sel) != cost {
		return 0, nil, fmt.Errorf("%w: cost %d but %d subsets listed", ErrMalformed, cost, len(sel))
	}
	return cost, sel, nil
}

// ReadTrace parses a .trace file.
func ReadTrace(r io.Reader) ([]cover.TraceEvent, error) {
	var events []cover.TraceEvent
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: trace line %d: want 2 fields, have %d", ErrMalformed, line, len(fields))
		}
		sec, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: trace line %d: %v", ErrMalformed, line, err)
		}
		cost, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: trace line %d: %v", ErrMalformed, line, err)
		}
		events = append(events, cover.TraceEvent{
			Elapsed: time.Duration(sec * float64(time.Second)),
			Cost:    cost,
		})
	}
	return events, sc.Err()
}

// ReadOptimum reads the reference value from a .out file: a single integer.
func ReadOptimum(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrMalformed, path)
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return v, nil
}

// RelativeError is (cost - optimum) / optimum.
func RelativeError(cost, optimum int) float64 {
	if optimum == 0 {
		if cost == 0 {
			return 0
		}
		return float64(cost)
	}
	return float64(cost-optimum) / float64(optimum)
}
