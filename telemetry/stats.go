package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/routine"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTime         float64 `csv:"sim_time"` // days

	Agents int `csv:"agents"`

	// Events during window
	Transitions      int `csv:"transitions"`
	ExternalEvents   int `csv:"external_events"`
	CrisisOnsets     int `csv:"crisis_onsets"`
	CrisisRemissions int `csv:"crisis_remissions"`
	EscapeOnsets     int `csv:"escape_onsets"`

	// Share of agents above the thresholds at window end
	CrisisShare float64 `csv:"crisis_share"`
	EscapeShare float64 `csv:"escape_share"`

	// Routine occupancy at window end
	Sleeping  int `csv:"sleeping"`
	Mornings  int `csv:"morning"`
	Commuting int `csv:"commuting"`
	Working   int `csv:"working"`
	AtHome    int `csv:"at_home"`

	// Variable distributions (sampled at window end)
	StressMean float64 `csv:"stress_mean"`
	StressStd  float64 `csv:"stress_std"`
	StressP10  float64 `csv:"stress_p10"`
	StressP50  float64 `csv:"stress_p50"`
	StressP90  float64 `csv:"stress_p90"`

	AversionMean float64 `csv:"aversion_mean"`
	AversionStd  float64 `csv:"aversion_std"`
	AversionP10  float64 `csv:"aversion_p10"`
	AversionP50  float64 `csv:"aversion_p50"`
	AversionP90  float64 `csv:"aversion_p90"`

	UrgeMean float64 `csv:"urge_mean"`
	UrgeP50  float64 `csv:"urge_p50"`
	UrgeP90  float64 `csv:"urge_p90"`

	ThoughtMean float64 `csv:"thought_mean"`
	ThoughtP50  float64 `csv:"thought_p50"`
	ThoughtP90  float64 `csv:"thought_p90"`

	BehaviorMean float64 `csv:"behavior_mean"`
	BehaviorP50  float64 `csv:"behavior_p50"`
	BehaviorP90  float64 `csv:"behavior_p90"`

	ExternalMean float64 `csv:"external_mean"`
	InternalMean float64 `csv:"internal_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes one variable across the population.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution calculates mean, population standard deviation and
// percentiles. An empty slice yields all zeros.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// Population holds per-variable samples gathered from observations.
type Population struct {
	Stress, Aversion, Urge, Thought, Behavior, External, Internal []float64

	Occupancy map[routine.Kind]int
}

// Gather splits observations into per-variable samples.
func Gather(obs []agent.Observation) Population {
	n := len(obs)
	p := Population{
		Stress:    make([]float64, 0, n),
		Aversion:  make([]float64, 0, n),
		Urge:      make([]float64, 0, n),
		Thought:   make([]float64, 0, n),
		Behavior:  make([]float64, 0, n),
		External:  make([]float64, 0, n),
		Internal:  make([]float64, 0, n),
		Occupancy: make(map[routine.Kind]int, len(routine.Kinds)),
	}
	for _, o := range obs {
		p.Stress = append(p.Stress, o.Stress)
		p.Aversion = append(p.Aversion, o.AversiveInternalState)
		p.Urge = append(p.Urge, o.UrgeToEscape)
		p.Thought = append(p.Thought, o.SuicidalThought)
		p.Behavior = append(p.Behavior, o.EscapeBehavior)
		p.External = append(p.External, o.ExternalStrategy)
		p.Internal = append(p.Internal, o.InternalStrategy)
		if k, err := routine.ParseKind(o.State); err == nil {
			p.Occupancy[k]++
		}
	}
	return p
}

// ShareAtLeast returns the fraction of values at or above threshold.
func ShareAtLeast(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("agents", s.Agents),
		slog.Int("transitions", s.Transitions),
		slog.Int("external_events", s.ExternalEvents),
		slog.Int("crisis_onsets", s.CrisisOnsets),
		slog.Int("crisis_remissions", s.CrisisRemissions),
		slog.Int("escape_onsets", s.EscapeOnsets),
		slog.Float64("crisis_share", s.CrisisShare),
		slog.Float64("escape_share", s.EscapeShare),
		slog.Float64("stress_mean", s.StressMean),
		slog.Float64("stress_p90", s.StressP90),
		slog.Float64("aversion_mean", s.AversionMean),
		slog.Float64("aversion_p90", s.AversionP90),
		slog.Float64("urge_mean", s.UrgeMean),
		slog.Float64("thought_mean", s.ThoughtMean),
		slog.Float64("thought_p90", s.ThoughtP90),
		slog.Float64("behavior_mean", s.BehaviorMean),
		slog.Float64("external_mean", s.ExternalMean),
		slog.Float64("internal_mean", s.InternalMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTime,
		"agents", s.Agents,
		"transitions", s.Transitions,
		"crisis_onsets", s.CrisisOnsets,
		"crisis_share", s.CrisisShare,
		"escape_share", s.EscapeShare,
		"stress_mean", s.StressMean,
		"aversion_mean", s.AversionMean,
		"urge_mean", s.UrgeMean,
		"thought_mean", s.ThoughtMean,
		"thought_p90", s.ThoughtP90,
		"behavior_mean", s.BehaviorMean,
		"external_mean", s.ExternalMean,
		"internal_mean", s.InternalMean,
	)
}
