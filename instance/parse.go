package instance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Parse reads the text instance format:
//
//	n m
//	size e_1 e_2 ... e_size     (m lines, 1-based element ids)
//
// Blank lines are ignored. Any count mismatch is an ErrMalformed; no partial
// instance is ever returned.
func Parse(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lineNo := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			lineNo++
			fields := strings.Fields(sc.Text())
			if len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%w: line %d: header needs 2 fields, got %d", ErrMalformed, lineNo, len(header))
	}
	n, err := atoi(header[0], lineNo)
	if err != nil {
		return nil, err
	}
	m, err := atoi(header[1], lineNo)
	if err != nil {
		return nil, err
	}

	subsets := make([][]int, 0, m)
	for i := 0; i < m; i++ {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: expected %d subsets, found %d", ErrMalformed, m, i)
		}
		size, err := atoi(fields[0], lineNo)
		if err != nil {
			return nil, err
		}
		if size != len(fields)-1 {
			return nil, fmt.Errorf("%w: line %d: subset declares %d elements, lists %d",
				ErrMalformed, lineNo, size, len(fields)-1)
		}
		s := make([]int, size)
		for j, f := range fields[1:] {
			e, err := atoi(f, lineNo)
			if err != nil {
				return nil, err
			}
			if e < 1 || e > n {
				return nil, fmt.Errorf("%w: line %d: element %d outside 1..%d", ErrMalformed, lineNo, e, n)
			}
			s[j] = e - 1
		}
		subsets = append(subsets, s)
	}
	if extra, ok := next(); ok {
		return nil, fmt.Errorf("%w: line %d: unexpected trailing data %q", ErrMalformed, lineNo, strings.Join(extra, " "))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(n, subsets)
}

// Load parses the instance file at path and names it after the file stem.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	inst, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	inst.Name = Stem(path)
	log.Debug().Str("path", path).Int("n", inst.N()).Int("m", inst.M()).
		Str("fingerprint", strconv.FormatUint(inst.Fingerprint(), 16)).Msg("instance-loaded")
	return inst, nil
}

// Stem is the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func atoi(s string, lineNo int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformed, lineNo, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: line %d: negative value %d", ErrMalformed, lineNo, v)
	}
	return v, nil
}
