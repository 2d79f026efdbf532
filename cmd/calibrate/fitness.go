package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/population"
	"github.com/pthm-cable/psyche/telemetry"
)

// Targets are the population statistics a calibration aims for, averaged over
// the windows after warmup.
type Targets struct {
	StressMean  float64
	CrisisShare float64
	EscapeShare float64
}

// Error weights. Shares are noisier than means in small populations.
const (
	weightStress = 1.0
	weightCrisis = 0.5
	weightEscape = 0.5

	warmupWindows = 1 // skip first N windows
)

// FitnessEvaluator runs simulations and scores them against the targets.
type FitnessEvaluator struct {
	params     *ParamVector
	days       int
	seeds      []uint64
	baseConfig *config.Config
	targets    Targets

	mu          sync.Mutex
	lastSummary Targets // achieved values from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, days int, seeds []uint64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		days:       days,
		seeds:      seeds,
		baseConfig: baseCfg,
		targets:    targets,
	}
}

// LastSummary returns the statistics achieved by the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() Targets {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// weighted squared error between the achieved and target statistics,
// averaged over seeds. A run that fails scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]Targets, len(fe.seeds))

	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			windows, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			results[i] = summarize(windows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1)
	}

	var mean Targets
	for _, r := range results {
		mean.StressMean += r.StressMean
		mean.CrisisShare += r.CrisisShare
		mean.EscapeShare += r.EscapeShare
	}
	n := float64(len(results))
	mean.StressMean /= n
	mean.CrisisShare /= n
	mean.EscapeShare /= n

	fe.mu.Lock()
	fe.lastSummary = mean
	fe.mu.Unlock()

	return fe.score(mean)
}

// score is the weighted squared error against the targets.
func (fe *FitnessEvaluator) score(got Targets) float64 {
	ds := got.StressMean - fe.targets.StressMean
	dc := got.CrisisShare - fe.targets.CrisisShare
	de := got.EscapeShare - fe.targets.EscapeShare
	return weightStress*ds*ds + weightCrisis*dc*dc + weightEscape*de*de
}

// runSimulation executes one run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) ([]telemetry.WindowStats, error) {
	cfg := fe.copyConfig()
	cfg.Simulation.Seed = seed
	cfg.Simulation.Days = fe.days
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}

	pop, err := population.New(cfg)
	if err != nil {
		return nil, err
	}

	t := cfg.Telemetry
	collector := telemetry.NewCollector(t.WindowDays, cfg.Simulation.DT, t.CrisisThreshold, t.EscapeThreshold)
	var windows []telemetry.WindowStats
	hooks := population.Hooks{
		AfterTick: func(p *population.Population, res population.StepResult) error {
			collector.RecordTransitions(res.Transitions)
			collector.RecordExternalEvents(res.Events)
			if collector.ShouldFlush(res.Tick) {
				windows = append(windows, collector.Flush(res.Tick, p.Observe()))
			}
			return nil
		},
	}

	err = pop.Run(context.Background(), int64(cfg.Derived.TotalTicks), cfg.Simulation.DT, hooks)
	return windows, err
}

// copyConfig copies the base config. Only value fields are changed on the
// copy; shared slices and maps are read-only.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// summarize averages the windows after warmup. With too few windows all of
// them are used.
func summarize(windows []telemetry.WindowStats) Targets {
	if len(windows) > warmupWindows {
		windows = windows[warmupWindows:]
	}
	var s Targets
	if len(windows) == 0 {
		return s
	}
	for _, w := range windows {
		s.StressMean += w.StressMean
		s.CrisisShare += w.CrisisShare
		s.EscapeShare += w.EscapeShare
	}
	n := float64(len(windows))
	s.StressMean /= n
	s.CrisisShare /= n
	s.EscapeShare /= n
	return s
}
