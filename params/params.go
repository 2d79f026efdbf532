// Package params holds the coefficient groups for every evolution equation and
// the per-agent store that routine states reset and override.
package params

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pthm-cable/psyche/evolution"
)

// Group names one equation's coefficient bundle.
type Group string

const (
	GroupStress           Group = "stress"
	GroupAversion         Group = "aversion"
	GroupUrge             Group = "urge"
	GroupThought          Group = "thought"
	GroupBehavior         Group = "behavior"
	GroupExternalStrategy Group = "external_strategy"
	GroupInternalStrategy Group = "internal_strategy"
)

// Groups lists every group in evaluation order.
var Groups = []Group{
	GroupStress,
	GroupAversion,
	GroupUrge,
	GroupThought,
	GroupBehavior,
	GroupExternalStrategy,
	GroupInternalStrategy,
}

var (
	ErrUnknownGroup       = errors.New("unknown parameter group")
	ErrUnknownCoefficient = errors.New("unknown coefficient")
)

// Set holds one value for every coefficient of every group.
type Set struct {
	Stress           evolution.StressParams   `yaml:"stress"`
	Aversion         evolution.AversionParams `yaml:"aversion"`
	Urge             evolution.UrgeParams     `yaml:"urge"`
	Thought          evolution.SigmoidParams  `yaml:"thought"`
	Behavior         evolution.SigmoidParams  `yaml:"behavior"`
	ExternalStrategy evolution.StrategyParams `yaml:"external_strategy"`
	InternalStrategy evolution.StrategyParams `yaml:"internal_strategy"`
}

// Defaults returns the documented default coefficients.
func Defaults() Set {
	return Set{
		Stress: evolution.StressParams{
			Mean:      0.2,
			Sigma:     0.12,
			Reversion: 1.2,
			EWeight:   1.0,
		},
		Aversion: evolution.AversionParams{
			Feedback:         6,
			CarryingCapacity: 0.2,
			SWeight:          3,
			TWeight:          0.1,
			XWeight:          2,
			IWeight:          0.5,
			FWeight:          0.5,
			BWeight:          0.5,
		},
		Urge: evolution.UrgeParams{
			Feedback: 5,
			AWeight:  3,
		},
		Thought: evolution.SigmoidParams{
			WeightNew: 0.8,
			Middle:    0.4,
			Steepness: 100,
		},
		Behavior: evolution.SigmoidParams{
			WeightNew: 0.8,
			Middle:    0.35,
			Steepness: 50,
		},
		ExternalStrategy: evolution.StrategyParams{
			Feedback:         3,
			CarryingCapacity: 0.1,
			AWeight:          0.41,
			UWeight:          0.6,
		},
		InternalStrategy: evolution.StrategyParams{
			Feedback:         3,
			CarryingCapacity: 0.05,
			AWeight:          0.65,
			UWeight:          1.05,
		},
	}
}

// coefficients maps each coefficient name of a group to its field in s.
func (s *Set) coefficients(g Group) (map[string]*float64, error) {
	switch g {
	case GroupStress:
		p := &s.Stress
		return map[string]*float64{
			"mean":      &p.Mean,
			"sigma":     &p.Sigma,
			"reversion": &p.Reversion,
			"E_weight":  &p.EWeight,
		}, nil
	case GroupAversion:
		p := &s.Aversion
		return map[string]*float64{
			"feedback":          &p.Feedback,
			"carrying_capacity": &p.CarryingCapacity,
			"S_weight":          &p.SWeight,
			"T_weight":          &p.TWeight,
			"X_weight":          &p.XWeight,
			"I_weight":          &p.IWeight,
			"F_weight":          &p.FWeight,
			"B_weight":          &p.BWeight,
		}, nil
	case GroupUrge:
		p := &s.Urge
		return map[string]*float64{
			"feedback": &p.Feedback,
			"A_weight": &p.AWeight,
		}, nil
	case GroupThought:
		return sigmoidCoefficients(&s.Thought), nil
	case GroupBehavior:
		return sigmoidCoefficients(&s.Behavior), nil
	case GroupExternalStrategy:
		return strategyCoefficients(&s.ExternalStrategy), nil
	case GroupInternalStrategy:
		return strategyCoefficients(&s.InternalStrategy), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
}

func sigmoidCoefficients(p *evolution.SigmoidParams) map[string]*float64 {
	return map[string]*float64{
		"weight_new":    &p.WeightNew,
		"sig_middle":    &p.Middle,
		"sig_steepness": &p.Steepness,
	}
}

func strategyCoefficients(p *evolution.StrategyParams) map[string]*float64 {
	return map[string]*float64{
		"feedback":          &p.Feedback,
		"carrying_capacity": &p.CarryingCapacity,
		"A_weight":          &p.AWeight,
		"U_weight":          &p.UWeight,
	}
}

// Get returns one named coefficient.
func (s Set) Get(g Group, name string) (float64, error) {
	coeffs, err := s.coefficients(g)
	if err != nil {
		return 0, err
	}
	ptr, ok := coeffs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownCoefficient, g, name)
	}
	return *ptr, nil
}

// Names returns the coefficient names of a group, sorted.
func Names(g Group) ([]string, error) {
	var s Set
	coeffs, err := s.coefficients(g)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(coeffs))
	for name := range coeffs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Apply returns a copy of s with the named coefficients of group g replaced.
// Coefficients not named keep their value. Nothing is changed if any name is
// unknown.
func (s Set) Apply(g Group, values map[string]float64) (Set, error) {
	out := s
	coeffs, err := out.coefficients(g)
	if err != nil {
		return s, err
	}
	for name := range values {
		if _, ok := coeffs[name]; !ok {
			return s, fmt.Errorf("%w: %s.%s", ErrUnknownCoefficient, g, name)
		}
	}
	for name, v := range values {
		*coeffs[name] = v
	}
	return out, nil
}

// Overrides is a set of coefficient replacements keyed by group.
type Overrides map[Group]map[string]float64

// ApplyAll applies every group in o, in the order of Groups.
func (s Set) ApplyAll(o Overrides) (Set, error) {
	for g := range o {
		if _, err := s.coefficients(g); err != nil {
			return s, err
		}
	}
	out := s
	for _, g := range Groups {
		values, ok := o[g]
		if !ok {
			continue
		}
		var err error
		if out, err = out.Apply(g, values); err != nil {
			return s, err
		}
	}
	return out, nil
}
