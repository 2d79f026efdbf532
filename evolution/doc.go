// Package evolution implements the update rules for an agent's psychological
// state variables and the integrator that advances them.
//
// Rate equations (aversion, urge, coping strategies) are integrated with [RK4]
// against a parameter record that stays fixed for all four stages. Stress is a
// single stochastic step and the sigmoid variables (suicidal thought, escape
// behavior) are direct convex-combination updates; neither goes through the
// integrator.
//
// Every result that leaves [0, 1] is mirrored back by [Reflect].
package evolution
