// setcover solves one set cover instance with one strategy and writes the
// .sol and .trace files for the run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/domino14/setcover/config"
	"github.com/domino14/setcover/runner"
)

var (
	GitVersion string
)

func setupLogging(cfg *config.Config) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("setcover-failed")
		}
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
	setupLogging(cfg)
	log.Debug().Str("version", GitVersion).Interface("config", cfg.SanitizedSettings()).
		Msg("loaded-config")

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	path := cfg.GetString(config.ConfigInstance)
	if path == "" {
		return errors.New("no instance given; use --inst")
	}
	strategy, err := runner.ParseStrategy(cfg.GetString(config.ConfigAlgorithm))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runner.New(cfg)
	if p := cfg.GetString(config.ConfigLogStream); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer f.Close()
		r.SetLogStream(f)
	}

	res, err := r.RunFile(ctx, path, strategy, cfg.GetInt(config.ConfigTime), cfg.GetInt64(config.ConfigSeed))
	if err != nil {
		return err
	}
	fmt.Println(runner.ShowResult(path, res))
	return nil
}
