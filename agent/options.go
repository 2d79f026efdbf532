package agent

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/psyche/evolution"
	"github.com/pthm-cable/psyche/params"
	"github.com/pthm-cable/psyche/routine"
	"github.com/pthm-cable/psyche/social"
)

// SleepDist is the nightly sleep length distribution, in hours. Samples are
// clipped at zero.
type SleepDist struct {
	MeanHours  float64 `yaml:"mean_hours"`
	SigmaHours float64 `yaml:"sigma_hours"`
}

// CommuteDist is the log-normal one-way commute length, in hours.
type CommuteDist struct {
	MedianHours float64 `yaml:"median_hours"`
	Sigma       float64 `yaml:"sigma"` // of the underlying normal
	MaxHours    float64 `yaml:"max_hours"`
}

// Sample draws a commute length in simulation time.
func (d CommuteDist) Sample(rng *rand.Rand, c routine.Clock) float64 {
	if d.MedianHours <= 0 {
		return 0
	}
	ln := distuv.LogNormal{Mu: math.Log(d.MedianHours), Sigma: d.Sigma, Src: rng}
	h := ln.Rand()
	if d.MaxHours > 0 && h > d.MaxHours {
		h = d.MaxHours
	}
	return c.Hours(h)
}

// Options configure a new agent.
type Options struct {
	Profile  string     // type label carried into observations
	Defaults params.Set // the profile's resolved coefficients
	Initial  Vars

	Clock   routine.Clock
	Sleep   SleepDist
	Commute CommuteDist

	Network social.Network
	Event   evolution.Event

	// Seed is shared by the whole population; the agent id selects the
	// stream.
	Seed uint64
}

// DefaultOptions returns a standard agent with no social links and events
// disabled.
func DefaultOptions() Options {
	return Options{
		Profile:  params.Standard().Name,
		Defaults: params.Defaults(),
		Initial:  InitialVars,
		Clock:    routine.DefaultClock(),
		Sleep:    SleepDist{MeanHours: 7, SigmaHours: 2},
		Commute:  CommuteDist{MedianHours: 0.5, Sigma: 0.4, MaxHours: 1.5},
	}
}
