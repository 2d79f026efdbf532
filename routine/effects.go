package routine

import (
	"math"

	"github.com/pthm-cable/psyche/params"
)

// Adjustments applied while a state is active.
const (
	morningStressPerDeficit   = 0.3
	morningThoughtPerDeficit  = 0.2
	morningSWeightPerDeficit  = 3
	morningTWeightPerDeficit  = 0.5
	commuteStressIncrease     = 0.2
	commuteStressFloor        = 1   // commuting pins the stress mean at 1 or above
	commuteBehaviorMiddle     = 1.1 // out of reach of the urge to escape
	workSocialWeightIncrease  = 2
	workUrgeFeedbackIncrease  = 2
	homeBehaviorMiddleDecline = 0.05
	homeThoughtWeightIncrease = 0.1
)

// SleepDeficit is the shortfall of sleep relative to a healthy night, as a
// fraction in [0, 1].
func SleepDeficit(slept float64, c Clock) float64 {
	if c.HealthySleep <= 0 {
		return 0
	}
	return math.Max(0, (c.HealthySleep-slept)/c.HealthySleep)
}

// ModifyParameters resets store to its defaults and applies the overrides of
// state s. It runs once on entry; the overrides then hold unchanged until the
// next transition.
func ModifyParameters(s State, store *params.Store, c Clock) error {
	store.Reset()
	cur := store.Current()

	var changes params.Overrides
	switch s.Kind {
	case Sleep:
	case Morning:
		d := SleepDeficit(s.PrevLength, c)
		changes = params.Overrides{
			params.GroupStress: {
				"mean": math.Min(1, cur.Stress.Mean+morningStressPerDeficit*d),
			},
			params.GroupThought: {
				"sig_middle": math.Max(0, cur.Thought.Middle-morningThoughtPerDeficit*d),
			},
			params.GroupAversion: {
				"S_weight": cur.Aversion.SWeight + morningSWeightPerDeficit*d,
				"T_weight": cur.Aversion.TWeight + morningTWeightPerDeficit*d,
			},
		}
	case Commute:
		changes = params.Overrides{
			params.GroupStress:   {"mean": math.Max(cur.Stress.Mean+commuteStressIncrease, commuteStressFloor)},
			params.GroupBehavior: {"sig_middle": commuteBehaviorMiddle},
		}
	case Work:
		changes = params.Overrides{
			params.GroupAversion: {
				"F_weight": cur.Aversion.FWeight + workSocialWeightIncrease,
				"B_weight": cur.Aversion.BWeight + workSocialWeightIncrease,
			},
			params.GroupUrge: {"feedback": cur.Urge.Feedback + workUrgeFeedbackIncrease},
		}
	case Home:
		changes = params.Overrides{
			params.GroupBehavior: {"sig_middle": math.Max(0, cur.Behavior.Middle-homeBehaviorMiddleDecline)},
			params.GroupThought:  {"weight_new": math.Min(1, cur.Thought.WeightNew+homeThoughtWeightIncrease)},
		}
	}

	for _, g := range params.Groups {
		values, ok := changes[g]
		if !ok {
			continue
		}
		if err := store.Override(g, values); err != nil {
			return err
		}
	}
	return nil
}
