package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one timed section of a simulation tick.
type Phase uint8

// Phases in tick order.
const (
	PhaseStep      Phase = iota // agent updates
	PhaseObserve                // gathering observations
	PhaseTrack                  // lifetime stats and threshold events
	PhaseRecord                 // trajectory output and persistence
	PhaseTelemetry              // window stats and bookmarks
	numPhases
)

var phaseNames = [numPhases]string{"step", "observe", "track", "record", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickTiming is the timing of one tick.
type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
	agents int
}

// PerfCollector times the phases of each tick over a rolling window.
type PerfCollector struct {
	ring    []tickTiming
	next    int
	filled  int
	current tickTiming
	started time.Time
	mark    time.Time
	phase   Phase
	timing  bool // a phase is open
}

// NewPerfCollector creates a collector averaging over window ticks (one day
// of minutes when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 1440
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.started = time.Now()
	p.current = tickTiming{}
	p.timing = false
}

// StartPhase closes the open phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.mark = now
	p.phase = phase
	p.timing = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.timing && p.phase < numPhases {
		p.current.phases[p.phase] += now.Sub(p.mark)
	}
	p.timing = false
}

// EndTick closes the tick in which agents were updated and stores its timing.
func (p *PerfCollector) EndTick(agents int) {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.started)
	p.current.agents = agents

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// PerfStats aggregates the timings in the window.
type PerfStats struct {
	Ticks   int
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick, in percent

	TicksPerSecond   float64
	UpdatesPerSecond float64 // agent updates
}

// Stats aggregates the current window. An empty window gives zero stats.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.filled}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var agents int
	var phaseSum [numPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		total += t.total
		agents += t.agents
		if i == 0 || t.total < s.MinTick {
			s.MinTick = t.total
		}
		s.MaxTick = max(s.MaxTick, t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgTick = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(s.AvgTick)
		}
	}
	if total > 0 {
		s.TicksPerSecond = float64(p.filled) / total.Seconds()
		s.UpdatesPerSecond = float64(agents) / total.Seconds()
	}
	return s
}

// LogStats logs the window at Info, listing phases above 0.1% of a tick.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"updates_per_sec", int(s.UpdatesPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("min_tick_us", s.MinTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("updates_per_sec", s.UpdatesPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd     int64   `csv:"window_end"`
	Ticks         int     `csv:"ticks"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	UpdatesPerSec float64 `csv:"updates_per_sec"`
	StepPct       float64 `csv:"step_pct"`
	ObservePct    float64 `csv:"observe_pct"`
	TrackPct      float64 `csv:"track_pct"`
	RecordPct     float64 `csv:"record_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		Ticks:         s.Ticks,
		AvgTickUS:     s.AvgTick.Microseconds(),
		MinTickUS:     s.MinTick.Microseconds(),
		MaxTickUS:     s.MaxTick.Microseconds(),
		UpdatesPerSec: s.UpdatesPerSecond,
		StepPct:       s.PhasePct[PhaseStep],
		ObservePct:    s.PhasePct[PhaseObserve],
		TrackPct:      s.PhasePct[PhaseTrack],
		RecordPct:     s.PhasePct[PhaseRecord],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
