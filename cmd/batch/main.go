// batch runs one strategy over every instance in a data directory, for
// several seeds, and prints a summary per instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/domino14/setcover/automatic"
	"github.com/domino14/setcover/config"
	"github.com/domino14/setcover/runner"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("batch-failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.Load(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

	strategy, err := runner.ParseStrategy(cfg.GetString(config.ConfigAlgorithm))
	if err != nil {
		return err
	}
	seeds, err := automatic.ResolveSeeds(cfg)
	if err != nil {
		return err
	}
	dataDir := cfg.GetString(config.ConfigDataDir)
	paths, err := automatic.FindInstances(dataDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no *.in files in %s", dataDir)
	}
	outDir := cfg.GetString(config.ConfigOutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := automatic.SaveSeeds(seeds, filepath.Join(outDir, "seeds.txt")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tstart := time.Now()
	sums, err := automatic.NewBatch(runner.New(cfg)).Run(ctx, automatic.BatchConfig{
		Instances: paths,
		Strategy:  strategy,
		CutoffSec: cfg.GetInt(config.ConfigTime),
		Seeds:     seeds,
		OutputDir: outDir,
		Threads:   cfg.GetInt(config.ConfigThreads),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("got quit signal...")
		}
		return err
	}
	for _, s := range sums {
		if err := s.Fprint(os.Stdout); err != nil {
			return err
		}
		fmt.Println()
	}
	log.Info().Int("instances", len(sums)).Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("batch-done")
	return nil
}
