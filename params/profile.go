package params

import "fmt"

// Profile is a named agent type: a bundle of overrides layered on the global
// defaults. The result becomes the defaults of every agent with this profile.
type Profile struct {
	Name      string    `yaml:"name"`
	Share     float64   `yaml:"share"` // relative weight when assigning profiles
	Overrides Overrides `yaml:"overrides,omitempty"`
}

// Standard uses the global defaults unchanged.
func Standard() Profile {
	return Profile{Name: "standard", Share: 1}
}

// Volatile has more volatile stress and sharper sigmoid responses.
func Volatile() Profile {
	return Profile{
		Name:  "volatile",
		Share: 0,
		Overrides: Overrides{
			GroupStress: {
				"mean":      0.5,
				"sigma":     0.22,
				"reversion": 0.5,
				"E_weight":  3.0,
			},
			GroupThought: {
				"weight_new":    0.9,
				"sig_middle":    0.35,
				"sig_steepness": 100,
			},
			GroupBehavior: {
				"weight_new":    0.9,
				"sig_middle":    0.32,
				"sig_steepness": 50,
			},
		},
	}
}

// Resolve layers the profile's overrides on base.
func (p Profile) Resolve(base Set) (Set, error) {
	s, err := base.ApplyAll(p.Overrides)
	if err != nil {
		return base, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return s, nil
}
