package telemetry

import (
	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/routine"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationDays  float64
	windowDurationTicks int64
	dt                  float64

	crisisThreshold float64
	escapeThreshold float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	transitions      int
	externalEvents   int
	crisisOnsets     int
	crisisRemissions int
	escapeOnsets     int
}

// NewCollector creates a new stats collector.
// windowDurationDays: how long each stats window lasts in simulation days
// dt: days per tick (used for tick-to-time conversion)
func NewCollector(windowDurationDays, dt, crisisThreshold, escapeThreshold float64) *Collector {
	ticksPerWindow := int64(windowDurationDays/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationDays:  windowDurationDays,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		crisisThreshold:     crisisThreshold,
		escapeThreshold:     escapeThreshold,
	}
}

// RecordTransitions adds routine transitions taken during a tick.
func (c *Collector) RecordTransitions(n int) {
	c.transitions += n
}

// RecordExternalEvents adds external events that fired during a tick.
func (c *Collector) RecordExternalEvents(n int) {
	c.externalEvents += n
}

// Record counts a threshold event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventCrisisOnset:
		c.crisisOnsets++
	case EventCrisisRemission:
		c.crisisRemissions++
	case EventEscapeOnset:
		c.escapeOnsets++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the population's current observations and
// resets counters for the next window.
func (c *Collector) Flush(currentTick int64, obs []agent.Observation) WindowStats {
	pop := Gather(obs)
	stress := ComputeDistribution(pop.Stress)
	aversion := ComputeDistribution(pop.Aversion)
	urge := ComputeDistribution(pop.Urge)
	thought := ComputeDistribution(pop.Thought)
	behavior := ComputeDistribution(pop.Behavior)
	external := ComputeDistribution(pop.External)
	internal := ComputeDistribution(pop.Internal)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTime:         float64(currentTick) * c.dt,

		Agents: len(obs),

		Transitions:      c.transitions,
		ExternalEvents:   c.externalEvents,
		CrisisOnsets:     c.crisisOnsets,
		CrisisRemissions: c.crisisRemissions,
		EscapeOnsets:     c.escapeOnsets,

		CrisisShare: ShareAtLeast(pop.Thought, c.crisisThreshold),
		EscapeShare: ShareAtLeast(pop.Behavior, c.escapeThreshold),

		Sleeping:  pop.Occupancy[routine.Sleep],
		Mornings:  pop.Occupancy[routine.Morning],
		Commuting: pop.Occupancy[routine.Commute],
		Working:   pop.Occupancy[routine.Work],
		AtHome:    pop.Occupancy[routine.Home],

		StressMean: stress.Mean,
		StressStd:  stress.Std,
		StressP10:  stress.P10,
		StressP50:  stress.P50,
		StressP90:  stress.P90,

		AversionMean: aversion.Mean,
		AversionStd:  aversion.Std,
		AversionP10:  aversion.P10,
		AversionP50:  aversion.P50,
		AversionP90:  aversion.P90,

		UrgeMean: urge.Mean,
		UrgeP50:  urge.P50,
		UrgeP90:  urge.P90,

		ThoughtMean: thought.Mean,
		ThoughtP50:  thought.P50,
		ThoughtP90:  thought.P90,

		BehaviorMean: behavior.Mean,
		BehaviorP50:  behavior.P50,
		BehaviorP90:  behavior.P90,

		ExternalMean: external.Mean,
		InternalMean: internal.Mean,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.transitions = 0
	c.externalEvents = 0
	c.crisisOnsets = 0
	c.crisisRemissions = 0
	c.escapeOnsets = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
