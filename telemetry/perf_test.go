package telemetry

import (
	"testing"
	"time"
)

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseStep, "step"},
		{PhaseRecord, "record"},
		{PhaseTelemetry, "telemetry"},
		{numPhases, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestPerfCollector_PhasesAndThroughput(t *testing.T) {
	pc := NewPerfCollector(10)

	for range 4 {
		pc.StartTick()
		pc.StartPhase(PhaseStep)
		time.Sleep(500 * time.Microsecond)
		pc.StartPhase(PhaseObserve)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick(25)
	}

	stats := pc.Stats()
	if stats.Ticks != 4 {
		t.Errorf("Ticks = %d, want 4", stats.Ticks)
	}
	if stats.AvgTick <= 0 || stats.MinTick > stats.MaxTick {
		t.Errorf("tick timing = avg %v min %v max %v", stats.AvgTick, stats.MinTick, stats.MaxTick)
	}
	if stats.PhaseAvg[PhaseStep] <= stats.PhaseAvg[PhaseObserve] {
		t.Errorf("step %v should exceed observe %v", stats.PhaseAvg[PhaseStep], stats.PhaseAvg[PhaseObserve])
	}
	if stats.PhaseAvg[PhaseRecord] != 0 {
		t.Errorf("untimed phase has %v", stats.PhaseAvg[PhaseRecord])
	}
	if pct := stats.PhasePct[PhaseStep] + stats.PhasePct[PhaseObserve]; pct <= 0 || pct > 100.0001 {
		t.Errorf("phase shares sum to %v%%", pct)
	}

	// 25 agents per tick
	ratio := stats.UpdatesPerSecond / stats.TicksPerSecond
	if ratio < 24.999 || ratio > 25.001 {
		t.Errorf("updates per tick = %v, want 25", ratio)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)

	for range 7 {
		pc.StartTick()
		pc.StartPhase(PhaseStep)
		pc.EndTick(1)
	}

	if got := pc.Stats().Ticks; got != 3 {
		t.Errorf("Ticks = %d, want window size 3", got)
	}
}

func TestPerfCollector_EmptyAndDefaultWindow(t *testing.T) {
	pc := NewPerfCollector(0)
	if len(pc.ring) != 1440 {
		t.Errorf("default window = %d, want 1440", len(pc.ring))
	}

	stats := pc.Stats()
	if stats != (PerfStats{}) {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	var stats PerfStats
	stats.Ticks = 1440
	stats.AvgTick = 1500 * time.Microsecond
	stats.UpdatesPerSecond = 33000
	stats.PhasePct[PhaseStep] = 80
	stats.PhasePct[PhaseTelemetry] = 5

	row := stats.ToCSV(2880)
	if row.WindowEnd != 2880 || row.Ticks != 1440 || row.AvgTickUS != 1500 || row.UpdatesPerSec != 33000 {
		t.Errorf("row = %+v", row)
	}
	if row.StepPct != 80 || row.TelemetryPct != 5 || row.RecordPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
