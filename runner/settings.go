package runner

import (
	"github.com/domino14/setcover/anneal"
	"github.com/domino14/setcover/bnb"
	"github.com/domino14/setcover/config"
	"github.com/domino14/setcover/hillclimb"
)

// BnBOptions and its siblings read the config at call time, so a setting
// changed between runs takes effect on the next one.
func (r *Runner) BnBOptions() bnb.Options {
	return bnb.Options{
		MaxFrontier:    r.cfg.GetInt(config.ConfigBnBMaxFrontier),
		MemoryFraction: r.cfg.GetFloat64(config.ConfigBnBMemoryFraction),
		ReportInterval: r.cfg.GetDuration(config.ConfigBnBReportInterval),
	}
}

func (r *Runner) HillClimbOptions() hillclimb.Options {
	return hillclimb.Options{
		NoImproveLimit:  r.cfg.GetInt(config.ConfigHCNoImproveLimit),
		MaxSubsetChecks: r.cfg.GetInt(config.ConfigHCMaxSubsetChecks),
		ReoptimizeEvery: r.cfg.GetInt(config.ConfigHCReoptimizeEvery),
		MaxSwapFraction: r.cfg.GetFloat64(config.ConfigHCMaxSwapFraction),
		MaxIterations:   r.cfg.GetUint64(config.ConfigHCMaxIterations),
	}
}

func (r *Runner) AnnealOptions() anneal.Options {
	return anneal.Options{
		InitialTemp:  r.cfg.GetFloat64(config.ConfigSAInitialTemp),
		FinalTemp:    r.cfg.GetFloat64(config.ConfigSAFinalTemp),
		Alpha:        r.cfg.GetFloat64(config.ConfigSAAlpha),
		MovesPerTemp: r.cfg.GetInt(config.ConfigSAMovesPerTemp),
		RestartRatio: r.cfg.GetFloat64(config.ConfigSARestartRatio),
	}
}
