package evolution

// Event is a random external occurrence that shifts a variable by
// Strength*Weight when it fires.
type Event struct {
	Probability float64 `yaml:"probability"` // per tick
	Strength    float64 `yaml:"strength"`
	Weight      float64 `yaml:"weight"`
}

// Enabled reports whether the event can ever fire.
func (e Event) Enabled() bool {
	return e.Probability > 0
}

// ApplyEvent fires e when the uniform draw u is at most its probability.
// It returns the new value and whether the event fired.
func ApplyEvent(value float64, e Event, u float64) (float64, bool) {
	if !e.Enabled() || u > e.Probability {
		return value, false
	}
	return value + e.Strength*e.Weight, true
}
