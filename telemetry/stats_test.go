package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/routine"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", d.Mean)
	}
	// Population standard deviation of 0.1..1.0
	if math.Abs(d.Std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.287", d.Std)
	}
	if math.Abs(d.P10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", d.P10)
	}
	if math.Abs(d.P50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", d.P50)
	}
	if math.Abs(d.P90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", d.P90)
	}

	// Input order is left alone.
	if values[0] != 0.1 || values[9] != 1.0 {
		t.Error("ComputeDistribution reordered its input")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty slice should return all zeros, got %+v", d)
	}
}

func TestGather(t *testing.T) {
	obs := []agent.Observation{
		{AgentID: 1, State: "sleep", Stress: 0.2, SuicidalThought: 0.7},
		{AgentID: 2, State: "work", Stress: 0.4, SuicidalThought: 0.1},
		{AgentID: 3, State: "work", Stress: 0.6, EscapeBehavior: 0.9},
	}
	pop := Gather(obs)

	if len(pop.Stress) != 3 || pop.Stress[2] != 0.6 {
		t.Errorf("stress = %v", pop.Stress)
	}
	if pop.Occupancy[routine.Work] != 2 || pop.Occupancy[routine.Sleep] != 1 {
		t.Errorf("occupancy = %v", pop.Occupancy)
	}
	if got := ShareAtLeast(pop.Thought, 0.5); math.Abs(got-1.0/3) > 1e-12 {
		t.Errorf("crisis share = %v, want 1/3", got)
	}
	if got := ShareAtLeast(nil, 0.5); got != 0 {
		t.Errorf("share of nothing = %v", got)
	}
}
