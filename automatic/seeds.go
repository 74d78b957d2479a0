package automatic

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/domino14/setcover/config"
	"github.com/domino14/setcover/rng"
)

// DeriveSeeds expands one master seed into n independent run seeds.
func DeriveSeeds(master int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Derive(master, uint64(i))
	}
	return seeds
}

// SaveSeeds writes seeds to a file, one decimal seed per line.
func SaveSeeds(seeds []int64, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	writer := bufio.NewWriter(file)
	if _, err = writer.WriteString("# Run seeds, one per line\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, seed := range seeds {
		if _, err = writer.WriteString(strconv.FormatInt(seed, 10) + "\n"); err != nil {
			file.Close()
			return fmt.Errorf("failed to write seed %d: %w", i, err)
		}
	}
	if err = writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadSeeds reads a file written by SaveSeeds. Blank lines and # comments
// are skipped.
func LoadSeeds(path string) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds []int64
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seed, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse seed at line %d: %w", lineNum, err)
		}
		seeds = append(seeds, seed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return seeds, nil
}

// ResolveSeeds picks the batch seeds from cfg: a seed file wins over derived
// seeds, which win over the explicit seed list.
func ResolveSeeds(cfg *config.Config) ([]int64, error) {
	if path := cfg.GetString(config.ConfigSeedFile); path != "" {
		return LoadSeeds(path)
	}
	if n := cfg.GetInt(config.ConfigDeriveSeeds); n > 0 {
		return DeriveSeeds(cfg.GetInt64(config.ConfigSeed), n), nil
	}
	return cfg.Seeds()
}
