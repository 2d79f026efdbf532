// Package components defines ECS components for the population.
package components

import "github.com/pthm-cable/psyche/agent"

// Identity names an agent within the population.
type Identity struct {
	ID      int
	Profile string
}

// Member holds the agent driven by the population. The agent owns all of its
// mutable state; the entity only locates it.
type Member struct {
	Agent *agent.Agent
}
