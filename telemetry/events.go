// Package telemetry provides population health tracking, bookmarking, and snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventCrisisOnset EventType = iota
	EventCrisisRemission
	EventEscapeOnset
	EventEscapeEnd
)

var eventNames = [...]string{
	EventCrisisOnset:     "crisis_onset",
	EventCrisisRemission: "crisis_remission",
	EventEscapeOnset:     "escape_onset",
	EventEscapeEnd:       "escape_end",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type    EventType
	Tick    int64
	AgentID int

	// Level of the variable that crossed its threshold.
	Value float64
}

// NewCrisisOnsetEvent creates an event for suicidal thought rising to the
// crisis threshold.
func NewCrisisOnsetEvent(tick int64, agentID int, thought float64) Event {
	return Event{Type: EventCrisisOnset, Tick: tick, AgentID: agentID, Value: thought}
}

// NewCrisisRemissionEvent creates an event for suicidal thought falling back
// below the crisis threshold.
func NewCrisisRemissionEvent(tick int64, agentID int, thought float64) Event {
	return Event{Type: EventCrisisRemission, Tick: tick, AgentID: agentID, Value: thought}
}

// NewEscapeOnsetEvent creates an event for escape behavior rising to its
// threshold.
func NewEscapeOnsetEvent(tick int64, agentID int, behavior float64) Event {
	return Event{Type: EventEscapeOnset, Tick: tick, AgentID: agentID, Value: behavior}
}

// NewEscapeEndEvent creates an event for escape behavior falling back below
// its threshold.
func NewEscapeEndEvent(tick int64, agentID int, behavior float64) Event {
	return Event{Type: EventEscapeEnd, Tick: tick, AgentID: agentID, Value: behavior}
}
