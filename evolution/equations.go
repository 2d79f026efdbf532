package evolution

import "math"

// Stress performs one Euler-Maruyama step of the Ornstein-Uhlenbeck stress
// process. z is a standard normal draw; the noise term has standard deviation
// sigma*sqrt(dt). The result is damped by the previous external strategy and
// reflected into [0, 1].
func Stress(dt float64, in StressInput, z float64) float64 {
	drift := in.Reversion * (in.Mean - in.S)
	s := in.S + drift*dt + in.Sigma*math.Sqrt(dt)*z
	s *= math.Exp(-in.EWeight * in.E * dt)
	return Reflect(s)
}

// Aversion is the rate of change of the aversive internal state.
// Friend influence is subtracted and bully influence added.
func Aversion(prev, _ float64, in AversionInput) float64 {
	return in.Feedback*prev*(in.CarryingCapacity-prev) +
		in.SWeight*in.S -
		in.TWeight*in.T -
		in.XWeight*in.X -
		in.IWeight*in.I -
		in.FWeight*in.F +
		in.BWeight*in.B
}

// Urge is the rate of change of the urge to escape.
func Urge(prev, _ float64, in UrgeInput) float64 {
	return -in.Feedback*prev + in.AWeight*in.A
}

// Strategy is the rate of change of a coping strategy.
func Strategy(prev, _ float64, in StrategyInput) float64 {
	return in.Feedback*prev*(in.CarryingCapacity-prev) + in.AWeight*in.A - in.UWeight*in.U
}

// Sigmoid blends the previous value with a logistic response to the urge to
// escape. It is a direct update, not a rate.
func Sigmoid(prev, _ float64, in SigmoidInput) float64 {
	target := Logistic(in.Steepness * (in.U - in.Middle))
	return (1-in.WeightNew)*prev + in.WeightNew*target
}

// Logistic returns 1/(1+exp(-z)).
func Logistic(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
