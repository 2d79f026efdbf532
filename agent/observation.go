package agent

// Observation is the read surface recorded for an agent. Field names are
// stable: recorders and downstream analysis key on them.
type Observation struct {
	AgentID               int     `csv:"agent_id" db:"agent_id" json:"agent_id"`
	Step                  int64   `csv:"step" db:"step" json:"step"`
	Time                  float64 `csv:"time" db:"time" json:"time"`
	Type                  string  `csv:"type" db:"type" json:"type"`
	State                 string  `csv:"state" db:"state" json:"state"`
	Stress                float64 `csv:"stress" db:"stress" json:"stress"`
	AversiveInternalState float64 `csv:"aversive_internal_state" db:"aversive_internal_state" json:"aversive_internal_state"`
	UrgeToEscape          float64 `csv:"urge_to_escape" db:"urge_to_escape" json:"urge_to_escape"`
	SuicidalThought       float64 `csv:"suicidal_thought" db:"suicidal_thought" json:"suicidal_thought"`
	EscapeBehavior        float64 `csv:"escape_behavior" db:"escape_behavior" json:"escape_behavior"`
	ExternalStrategy      float64 `csv:"external_strategy" db:"external_strategy" json:"external_strategy"`
	InternalStrategy      float64 `csv:"internal_strategy" db:"internal_strategy" json:"internal_strategy"`
}

// Observe captures the agent's current values.
func (a *Agent) Observe() Observation {
	v := a.vars
	return Observation{
		AgentID:               a.id,
		Step:                  a.steps,
		Time:                  a.elapsed,
		Type:                  a.profile,
		State:                 a.machine.State().Kind.String(),
		Stress:                v.S,
		AversiveInternalState: v.A,
		UrgeToEscape:          v.U,
		SuicidalThought:       v.T,
		EscapeBehavior:        v.X,
		ExternalStrategy:      v.E,
		InternalStrategy:      v.I,
	}
}

// Vars returns the observed variables.
func (o Observation) Vars() Vars {
	return Vars{
		S: o.Stress,
		A: o.AversiveInternalState,
		U: o.UrgeToEscape,
		T: o.SuicidalThought,
		X: o.EscapeBehavior,
		E: o.ExternalStrategy,
		I: o.InternalStrategy,
	}
}
