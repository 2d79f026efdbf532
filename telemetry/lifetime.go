package telemetry

import "github.com/pthm-cable/psyche/agent"

// LifetimeStats tracks per-agent statistics over the run.
type LifetimeStats struct {
	Profile string

	PeakStress   float64
	PeakThought  float64
	PeakBehavior float64

	// Crisis: suicidal thought at or above the crisis threshold
	CrisisTime float64 // days
	Episodes   int
	inCrisis   bool

	// Escape: escape behavior at or above the escape threshold
	EscapeEpisodes int
	escaping       bool

	LastOnsetTick int64
}

// InCrisis reports whether the agent's last observation was above the crisis
// threshold.
func (ls *LifetimeStats) InCrisis() bool { return ls.inCrisis }

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats  map[int]*LifetimeStats
	crisis float64
	escape float64
}

// NewLifetimeTracker creates a tracker with the given thresholds.
func NewLifetimeTracker(crisisThreshold, escapeThreshold float64) *LifetimeTracker {
	return &LifetimeTracker{
		stats:  make(map[int]*LifetimeStats),
		crisis: crisisThreshold,
		escape: escapeThreshold,
	}
}

// Register creates lifetime stats for an agent.
func (lt *LifetimeTracker) Register(agentID int, profile string) {
	lt.stats[agentID] = &LifetimeStats{Profile: profile}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agentID int) *LifetimeStats {
	return lt.stats[agentID]
}

// Observe folds one observation into the agent's stats. interval is the time
// since the agent's previous observation. Threshold crossings are returned as
// events.
func (lt *LifetimeTracker) Observe(o agent.Observation, interval float64) []Event {
	s := lt.stats[o.AgentID]
	if s == nil {
		return nil
	}

	s.PeakStress = max(s.PeakStress, o.Stress)
	s.PeakThought = max(s.PeakThought, o.SuicidalThought)
	s.PeakBehavior = max(s.PeakBehavior, o.EscapeBehavior)

	var events []Event
	crisis := o.SuicidalThought >= lt.crisis
	switch {
	case crisis && !s.inCrisis:
		s.Episodes++
		s.LastOnsetTick = o.Step
		events = append(events, NewCrisisOnsetEvent(o.Step, o.AgentID, o.SuicidalThought))
	case !crisis && s.inCrisis:
		events = append(events, NewCrisisRemissionEvent(o.Step, o.AgentID, o.SuicidalThought))
	}
	if crisis {
		s.CrisisTime += interval
	}
	s.inCrisis = crisis

	escaping := o.EscapeBehavior >= lt.escape
	switch {
	case escaping && !s.escaping:
		s.EscapeEpisodes++
		events = append(events, NewEscapeOnsetEvent(o.Step, o.AgentID, o.EscapeBehavior))
	case !escaping && s.escaping:
		events = append(events, NewEscapeEndEvent(o.Step, o.AgentID, o.EscapeBehavior))
	}
	s.escaping = escaping

	return events
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[int]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// InCrisisCount returns the number of agents currently in crisis.
func (lt *LifetimeTracker) InCrisisCount() int {
	n := 0
	for _, s := range lt.stats {
		if s.inCrisis {
			n++
		}
	}
	return n
}
