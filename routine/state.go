package routine

import "math"

// Clock holds the daily schedule, in simulation time units (days).
type Clock struct {
	DayLength     float64
	WakeTime      float64 // time of day
	WorkTime      float64 // time of day work starts
	WorkdayLength float64
	HealthySleep  float64
}

// DefaultClock wakes at 07:00, starts work at 09:00 for eight hours and
// considers eight hours of sleep healthy.
func DefaultClock() Clock {
	return Clock{
		DayLength:     1,
		WakeTime:      7.0 / 24,
		WorkTime:      9.0 / 24,
		WorkdayLength: 8.0 / 24,
		HealthySleep:  8.0 / 24,
	}
}

// Hours converts a number of hours into simulation time.
func (c Clock) Hours(h float64) float64 {
	return h * c.DayLength / 24
}

// TimeOfDay returns t modulo the day length.
func (c Clock) TimeOfDay(t float64) float64 {
	return math.Mod(t, c.DayLength)
}

// Context is the per-agent input to duration calculations.
type Context struct {
	Clock   Clock
	Commute float64 // fixed commute length, sampled once per agent

	// SleepLength samples tonight's sleep length. It must not return a
	// negative value.
	SleepLength func() float64
}

// State is one active routine phase.
type State struct {
	Kind     Kind
	Start    float64
	End      float64
	Length   float64 // never negative
	TimeLeft float64

	// Predecessor, kept for the one transition that needs it.
	Prev       Kind
	HasPrev    bool
	PrevLength float64
}

// PassTime consumes dt of the remaining time.
func (s *State) PassTime(dt float64) {
	s.TimeLeft -= dt
}

// Done reports whether the state's time has run out.
func (s State) Done() bool {
	return s.TimeLeft <= 0
}

// Enter creates a state of kind k at time now, checking that prev may precede
// it and computing its duration. prev is nil only for the first state of a
// run, which must be Entry.
func Enter(k Kind, now float64, prev *State, ctx Context) (State, error) {
	s := State{Kind: k, Start: now}
	if prev == nil {
		if k != Entry {
			return State{}, &IllegalTransitionError{To: k}
		}
	} else {
		if !CanFollow(k, prev.Kind) {
			return State{}, &IllegalTransitionError{From: prev.Kind, To: k, HasFrom: true}
		}
		s.Prev = prev.Kind
		s.HasPrev = true
		s.PrevLength = prev.Length
	}

	c := ctx.Clock
	tod := c.TimeOfDay(now)
	var end float64
	switch k {
	case Sleep:
		if tod < c.WakeTime {
			end = now - tod + c.WakeTime
		} else {
			end = now + (c.DayLength - tod) + c.WakeTime
		}
	case Morning:
		end = now - tod + c.WorkTime - ctx.Commute
	case Commute:
		end = now + ctx.Commute
	case Work:
		end = now + c.WorkdayLength
	case Home:
		var sleep float64
		if ctx.SleepLength != nil {
			sleep = math.Max(0, ctx.SleepLength())
		}
		wake := now + (c.DayLength - tod) + c.WakeTime
		end = wake - sleep
	}

	if end < now {
		end = now
	}
	s.End = end
	s.Length = end - now
	s.TimeLeft = s.Length
	return s, nil
}

// Following returns the kind that comes after s. Commute is ambiguous: it
// leads to work after morning and home after work.
func Following(s State) (Kind, error) {
	switch s.Kind {
	case Sleep:
		return Morning, nil
	case Morning:
		return Commute, nil
	case Work:
		return Commute, nil
	case Home:
		return Sleep, nil
	case Commute:
		if s.HasPrev {
			switch s.Prev {
			case Morning:
				return Work, nil
			case Work:
				return Home, nil
			}
		}
		return 0, &IllegalTransitionError{From: Commute, HasFrom: true, NoNext: true, Before: s.Prev}
	}
	return 0, &IllegalTransitionError{From: s.Kind, HasFrom: true, NoNext: true, Before: s.Prev}
}

// Transition leaves s at time now and enters the state that follows it.
func Transition(s State, now float64, ctx Context) (State, error) {
	next, err := Following(s)
	if err != nil {
		return State{}, err
	}
	return Enter(next, now, &s, ctx)
}
