package evolution

// StressParams are the coefficients of the mean-reverting stress process.
type StressParams struct {
	Mean      float64 `yaml:"mean"`
	Sigma     float64 `yaml:"sigma"`
	Reversion float64 `yaml:"reversion"`
	EWeight   float64 `yaml:"E_weight"` // damping by external strategy
}

// AversionParams are the coefficients of the aversive internal state equation.
type AversionParams struct {
	Feedback         float64 `yaml:"feedback"`
	CarryingCapacity float64 `yaml:"carrying_capacity"`
	SWeight          float64 `yaml:"S_weight"`
	TWeight          float64 `yaml:"T_weight"`
	XWeight          float64 `yaml:"X_weight"`
	IWeight          float64 `yaml:"I_weight"`
	FWeight          float64 `yaml:"F_weight"`
	BWeight          float64 `yaml:"B_weight"`
}

// UrgeParams are the coefficients of the urge-to-escape equation.
type UrgeParams struct {
	Feedback float64 `yaml:"feedback"`
	AWeight  float64 `yaml:"A_weight"`
}

// SigmoidParams drive the convex-combination update shared by suicidal
// thought and escape behavior.
type SigmoidParams struct {
	WeightNew float64 `yaml:"weight_new"`
	Middle    float64 `yaml:"sig_middle"`
	Steepness float64 `yaml:"sig_steepness"`
}

// StrategyParams are the coefficients of a coping strategy equation. External
// and internal strategies use the same form with independent values.
type StrategyParams struct {
	Feedback         float64 `yaml:"feedback"`
	CarryingCapacity float64 `yaml:"carrying_capacity"`
	AWeight          float64 `yaml:"A_weight"`
	UWeight          float64 `yaml:"U_weight"`
}

// StressInput is everything one stress step reads.
type StressInput struct {
	S float64 // previous stress
	E float64 // previous external strategy
	StressParams
}

// AversionInput is everything the aversion rate reads besides its own value.
type AversionInput struct {
	S, T, X, I float64
	F, B       float64 // friend and bully influence
	AversionParams
}

// UrgeInput is everything the urge rate reads besides its own value.
type UrgeInput struct {
	A float64
	UrgeParams
}

// SigmoidInput is everything a sigmoid update reads besides the previous value.
type SigmoidInput struct {
	U float64
	SigmoidParams
}

// StrategyInput is everything a strategy rate reads besides its own value.
type StrategyInput struct {
	A, U float64
	StrategyParams
}
