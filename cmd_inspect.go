package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/evolution"
	"github.com/pthm-cable/psyche/params"
	"github.com/pthm-cable/psyche/routine"
)

// stateParameters is one routine state's working coefficients, and the keyed
// snapshot each equation receives for an agent at its initial values.
type stateParameters struct {
	State      string                            `yaml:"state"`
	Parameters params.Set                        `yaml:"parameters"`
	Snapshots  map[params.Group]evolution.Values `yaml:"snapshots"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the coefficients each routine state produces",
		Long: `Print, as YAML, the coefficients an agent works with in each routine state.

Examples:
  psyche inspect                      # standard profile, a healthy night
  psyche inspect --profile volatile --slept 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("profile")
			slept, _ := cmd.Flags().GetFloat64("slept")

			states, err := inspectProfile(config.Cfg(), name, slept)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(states)
		},
	}

	cmd.Flags().String("profile", "standard", "Agent profile")
	cmd.Flags().Float64("slept", 8, "Hours slept before the morning")

	return cmd
}

// inspectProfile applies each routine state's adjustments to the profile's
// coefficients.
func inspectProfile(cfg *config.Config, name string, slept float64) ([]stateParameters, error) {
	prof, ok := cfg.Profile(name)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	defaults, err := prof.Resolve(cfg.Parameters)
	if err != nil {
		return nil, err
	}

	v := agent.InitialVars
	live := params.Live{S: v.S, A: v.A, U: v.U, T: v.T, X: v.X, E: v.E, I: v.I}

	clock := cfg.Derived.Clock
	store := params.NewStore(defaults)
	out := make([]stateParameters, 0, len(routine.Kinds))
	for _, k := range routine.Kinds {
		s := routine.State{Kind: k}
		if k == routine.Morning {
			s.Prev, s.HasPrev, s.PrevLength = routine.Sleep, true, clock.Hours(slept)
		}
		if err := routine.ModifyParameters(s, store, clock); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}

		snaps := make(map[params.Group]evolution.Values, len(params.Groups))
		for _, g := range params.Groups {
			snap, err := store.SnapshotFor(g, live)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			snaps[g] = snap
		}
		set, err := decodeParameters(snaps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out = append(out, stateParameters{State: k.String(), Parameters: set, Snapshots: snaps})
	}
	return out, nil
}

// decodeParameters rebuilds the coefficient set from keyed snapshots. A
// snapshot lacking a required key gives an *evolution.MissingParameterError.
func decodeParameters(snaps map[params.Group]evolution.Values) (params.Set, error) {
	var set params.Set

	stress, err := evolution.DecodeStress(snaps[params.GroupStress])
	if err != nil {
		return set, err
	}
	set.Stress = stress.StressParams

	aversion, err := evolution.DecodeAversion(snaps[params.GroupAversion])
	if err != nil {
		return set, err
	}
	set.Aversion = aversion.AversionParams

	urge, err := evolution.DecodeUrge(snaps[params.GroupUrge])
	if err != nil {
		return set, err
	}
	set.Urge = urge.UrgeParams

	for g, dst := range map[params.Group]*evolution.SigmoidParams{
		params.GroupThought:  &set.Thought,
		params.GroupBehavior: &set.Behavior,
	} {
		in, err := evolution.DecodeSigmoid(snaps[g])
		if err != nil {
			return set, fmt.Errorf("%s: %w", g, err)
		}
		*dst = in.SigmoidParams
	}

	for g, dst := range map[params.Group]*evolution.StrategyParams{
		params.GroupExternalStrategy: &set.ExternalStrategy,
		params.GroupInternalStrategy: &set.InternalStrategy,
	} {
		in, err := evolution.DecodeStrategy(snaps[g])
		if err != nil {
			return set, fmt.Errorf("%s: %w", g, err)
		}
		*dst = in.StrategyParams
	}
	return set, nil
}
