package evolution

import "math"

// RK4 advances prev by one classic fourth-order Runge-Kutta step of size dt
// and reflects the result into [0, 1].
//
// The same parameter record p is used for all four stages: inputs that depend
// on other evolving variables stay frozen at their value from the start of the
// step.
func RK4[P any](prev, t, dt float64, f func(y, t float64, p P) float64, p P) float64 {
	k1 := f(prev, t, p)
	k2 := f(prev+0.5*dt*k1, t+0.5*dt, p)
	k3 := f(prev+0.5*dt*k2, t+0.5*dt, p)
	k4 := f(prev+dt*k3, t+dt, p)
	return Reflect(prev + dt*(k1+2*k2+2*k3+k4)/6)
}

// Reflect mirrors v back into [0, 1]: values above 1 map to 2-v and negative
// values to -v. Values further out than one mirror are folded until they land
// in range. NaN and infinities are returned unchanged.
func Reflect(v float64) float64 {
	switch {
	case v >= 0 && v <= 1:
		return v
	case v > 1 && v <= 2:
		return 2 - v
	case v < 0 && v >= -1:
		return -v
	case math.IsNaN(v) || math.IsInf(v, 0):
		return v
	}
	m := math.Mod(v, 2)
	if m < 0 {
		m += 2
	}
	if m > 1 {
		return 2 - m
	}
	return m
}
