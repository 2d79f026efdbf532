package evolution

import "fmt"

// Values is the dynamic, name-keyed form of an equation's inputs. It is what
// parameter snapshots and configuration produce; decode it into a typed input
// before evaluating an equation.
type Values map[string]float64

// MissingParameterError reports a required key absent from a Values map.
type MissingParameterError struct {
	Equation string
	Key      string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter %q for %s evolution", e.Key, e.Equation)
}

// Required keys per equation, in the order they are checked.
var (
	StressKeys   = []string{"S", "E", "mean", "sigma", "reversion", "E_weight"}
	AversionKeys = []string{"S", "T", "X", "I", "F", "B", "feedback", "carrying_capacity",
		"S_weight", "T_weight", "X_weight", "I_weight", "F_weight", "B_weight"}
	UrgeKeys     = []string{"A", "feedback", "A_weight"}
	SigmoidKeys  = []string{"U", "weight_new", "sig_middle", "sig_steepness"}
	StrategyKeys = []string{"A", "U", "feedback", "carrying_capacity", "A_weight", "U_weight"}
)

func (v Values) require(equation string, keys []string) error {
	for _, k := range keys {
		if _, ok := v[k]; !ok {
			return &MissingParameterError{Equation: equation, Key: k}
		}
	}
	return nil
}

// DecodeStress builds a StressInput from v.
func DecodeStress(v Values) (StressInput, error) {
	if err := v.require("stress", StressKeys); err != nil {
		return StressInput{}, err
	}
	return StressInput{
		S: v["S"],
		E: v["E"],
		StressParams: StressParams{
			Mean:      v["mean"],
			Sigma:     v["sigma"],
			Reversion: v["reversion"],
			EWeight:   v["E_weight"],
		},
	}, nil
}

// DecodeAversion builds an AversionInput from v.
func DecodeAversion(v Values) (AversionInput, error) {
	if err := v.require("aversive internal state", AversionKeys); err != nil {
		return AversionInput{}, err
	}
	return AversionInput{
		S: v["S"], T: v["T"], X: v["X"], I: v["I"],
		F: v["F"], B: v["B"],
		AversionParams: AversionParams{
			Feedback:         v["feedback"],
			CarryingCapacity: v["carrying_capacity"],
			SWeight:          v["S_weight"],
			TWeight:          v["T_weight"],
			XWeight:          v["X_weight"],
			IWeight:          v["I_weight"],
			FWeight:          v["F_weight"],
			BWeight:          v["B_weight"],
		},
	}, nil
}

// DecodeUrge builds an UrgeInput from v.
func DecodeUrge(v Values) (UrgeInput, error) {
	if err := v.require("urge to escape", UrgeKeys); err != nil {
		return UrgeInput{}, err
	}
	return UrgeInput{
		A:          v["A"],
		UrgeParams: UrgeParams{Feedback: v["feedback"], AWeight: v["A_weight"]},
	}, nil
}

// DecodeSigmoid builds a SigmoidInput from v.
func DecodeSigmoid(v Values) (SigmoidInput, error) {
	if err := v.require("sigmoid", SigmoidKeys); err != nil {
		return SigmoidInput{}, err
	}
	return SigmoidInput{
		U: v["U"],
		SigmoidParams: SigmoidParams{
			WeightNew: v["weight_new"],
			Middle:    v["sig_middle"],
			Steepness: v["sig_steepness"],
		},
	}, nil
}

// DecodeStrategy builds a StrategyInput from v.
func DecodeStrategy(v Values) (StrategyInput, error) {
	if err := v.require("strategy for change", StrategyKeys); err != nil {
		return StrategyInput{}, err
	}
	return StrategyInput{
		A: v["A"],
		U: v["U"],
		StrategyParams: StrategyParams{
			Feedback:         v["feedback"],
			CarryingCapacity: v["carrying_capacity"],
			AWeight:          v["A_weight"],
			UWeight:          v["U_weight"],
		},
	}, nil
}

// Values returns the keyed form of in.
func (in StressInput) Values() Values {
	return Values{
		"S": in.S, "E": in.E,
		"mean": in.Mean, "sigma": in.Sigma, "reversion": in.Reversion, "E_weight": in.EWeight,
	}
}

// Values returns the keyed form of in.
func (in AversionInput) Values() Values {
	return Values{
		"S": in.S, "T": in.T, "X": in.X, "I": in.I, "F": in.F, "B": in.B,
		"feedback":          in.Feedback,
		"carrying_capacity": in.CarryingCapacity,
		"S_weight":          in.SWeight,
		"T_weight":          in.TWeight,
		"X_weight":          in.XWeight,
		"I_weight":          in.IWeight,
		"F_weight":          in.FWeight,
		"B_weight":          in.BWeight,
	}
}

// Values returns the keyed form of in.
func (in UrgeInput) Values() Values {
	return Values{"A": in.A, "feedback": in.Feedback, "A_weight": in.AWeight}
}

// Values returns the keyed form of in.
func (in SigmoidInput) Values() Values {
	return Values{
		"U":             in.U,
		"weight_new":    in.WeightNew,
		"sig_middle":    in.Middle,
		"sig_steepness": in.Steepness,
	}
}

// Values returns the keyed form of in.
func (in StrategyInput) Values() Values {
	return Values{
		"A": in.A, "U": in.U,
		"feedback":          in.Feedback,
		"carrying_capacity": in.CarryingCapacity,
		"A_weight":          in.AWeight,
		"U_weight":          in.UWeight,
	}
}
