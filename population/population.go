// Package population drives a set of agents through the simulation clock.
package population

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/components"
	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/params"
	"github.com/pthm-cable/psyche/social"
)

// setupStream selects the random stream used for profile assignment and link
// sampling. Agent streams are selected by agent id, so it must not collide
// with any id.
const setupStream = math.MaxUint64

// ErrHalted is returned by Step once an earlier step has failed.
var ErrHalted = errors.New("population halted by an earlier step error")

// Population holds the agents of one run.
type Population struct {
	world *ecs.World

	mapper *ecs.Map2[components.Identity, components.Member]
	filter *ecs.Filter2[components.Identity, components.Member]

	// members is rebuilt from the ECS query each tick
	members []*agent.Agent

	seed      uint64
	dayLength float64
	parallel  bool
	workers   int

	tick int64
	now  float64

	// first step error; agents may be out of step with the clock after it
	err error
}

// StepResult summarizes one tick.
type StepResult struct {
	Tick        int64
	Time        float64
	DT          float64
	Transitions int
	Events      int
}

// New builds the population described by cfg: profiles are assigned in
// proportion to their shares, and every agent draws its friends and bullies
// from the rest of the population.
func New(cfg *config.Config) (*Population, error) {
	world := ecs.NewWorld()
	p := &Population{
		world:     world,
		mapper:    ecs.NewMap2[components.Identity, components.Member](world),
		filter:    ecs.NewFilter2[components.Identity, components.Member](world),
		seed:      cfg.Simulation.Seed,
		dayLength: cfg.Derived.Clock.DayLength,
		parallel:  cfg.Simulation.Parallel,
		workers:   cfg.Simulation.Workers,
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if p.dayLength <= 0 {
		p.dayLength = 1
	}

	n := cfg.Simulation.Agents
	rng := rand.New(rand.NewPCG(cfg.Simulation.Seed, setupStream))

	resolved := make([]params.Set, len(cfg.Profiles))
	for i, prof := range cfg.Profiles {
		s, err := prof.Resolve(cfg.Parameters)
		if err != nil {
			return nil, err
		}
		resolved[i] = s
	}
	assignment := AssignProfiles(rng, n, cfg.Profiles)

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}

	for id := 0; id < n; id++ {
		prof := cfg.Profiles[assignment[id]]
		friends := social.SampleLinks(rng, id, ids, cfg.Social.Friends, cfg.Social.Weights)
		bullies := social.SampleLinks(rng, id, ids, cfg.Social.Bullies, cfg.Social.Weights)

		a, err := agent.New(id, agent.Options{
			Profile:  prof.Name,
			Defaults: resolved[assignment[id]],
			Initial:  agent.InitialVars,
			Clock:    cfg.Derived.Clock,
			Sleep:    cfg.Routine.Sleep,
			Commute:  cfg.Routine.Commute,
			Network:  social.NewNetwork(friends, bullies, cfg.Social.Saturation),
			Event:    cfg.Events.ExternalStrategy,
			Seed:     cfg.Simulation.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("creating agent: %w", err)
		}
		p.mapper.NewEntity(
			&components.Identity{ID: id, Profile: prof.Name},
			&components.Member{Agent: a},
		)
	}

	return p, nil
}

// AssignProfiles returns a profile index for each of n agents. Counts follow
// the profiles' shares by largest remainder; the order is shuffled. When all
// shares are zero every agent gets the first profile.
func AssignProfiles(rng *rand.Rand, n int, profiles []params.Profile) []int {
	out := make([]int, 0, n)
	if n == 0 || len(profiles) == 0 {
		return out
	}

	var total float64
	for _, p := range profiles {
		total += p.Share
	}
	if total <= 0 {
		return make([]int, n)
	}

	type quota struct {
		index int
		count int
		frac  float64
	}
	quotas := make([]quota, len(profiles))
	assigned := 0
	for i, p := range profiles {
		exact := p.Share / total * float64(n)
		whole := math.Floor(exact)
		quotas[i] = quota{index: i, count: int(whole), frac: exact - whole}
		assigned += int(whole)
	}

	byRemainder := make([]quota, len(quotas))
	copy(byRemainder, quotas)
	sort.SliceStable(byRemainder, func(i, j int) bool {
		return byRemainder[i].frac > byRemainder[j].frac
	})
	for i := 0; assigned < n; i++ {
		quotas[byRemainder[i%len(byRemainder)].index].count++
		assigned++
	}

	for _, q := range quotas {
		for range q.count {
			out = append(out, q.index)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// gather collects the agents from the world, in id order.
func (p *Population) gather() []*agent.Agent {
	p.members = p.members[:0]
	query := p.filter.Query()
	for query.Next() {
		_, member := query.Get()
		p.members = append(p.members, member.Agent)
	}
	sort.Slice(p.members, func(i, j int) bool {
		return p.members[i].ID() < p.members[j].ID()
	})
	return p.members
}

// Step advances every agent by dt. Agents are independent within a tick, so
// they may be stepped concurrently; the first error stops the tick.
//
// A failed step leaves the population unusable: when stepping concurrently,
// agents in other chunks may already have advanced while the clock has not.
// Every later call returns ErrHalted wrapping the first error.
func (p *Population) Step(dt float64) (StepResult, error) {
	if p.err != nil {
		return StepResult{}, fmt.Errorf("%w: %w", ErrHalted, p.err)
	}
	members := p.gather()

	before := make([]counts, len(members))
	for i, a := range members {
		before[i] = counts{a.Transitions(), a.Events()}
	}

	var err error
	if p.parallel && len(members) >= parallelThreshold {
		err = p.stepParallel(members, dt)
	} else {
		err = stepRange(members, dt)
	}
	if err != nil {
		p.err = fmt.Errorf("tick %d: %w", p.tick+1, err)
		return StepResult{}, p.err
	}

	p.tick++
	p.now += dt

	res := StepResult{Tick: p.tick, Time: p.now, DT: dt}
	for i, a := range members {
		res.Transitions += a.Transitions() - before[i].transitions
		res.Events += a.Events() - before[i].events
	}
	return res, nil
}

type counts struct {
	transitions int
	events      int
}

func stepRange(members []*agent.Agent, dt float64) error {
	for _, a := range members {
		if err := a.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

// Observe returns every agent's observation, ordered by agent id.
func (p *Population) Observe() []agent.Observation {
	members := p.gather()
	obs := make([]agent.Observation, len(members))
	for i, a := range members {
		obs[i] = a.Observe()
	}
	return obs
}

// Agents returns the agents in id order.
func (p *Population) Agents() []*agent.Agent {
	members := p.gather()
	out := make([]*agent.Agent, len(members))
	copy(out, members)
	return out
}

// Agent returns the agent with the given id, or nil.
func (p *Population) Agent(id int) *agent.Agent {
	var found *agent.Agent
	query := p.filter.Query()
	for query.Next() {
		ident, member := query.Get()
		if ident.ID == id {
			found = member.Agent
		}
	}
	return found
}

// Len returns the number of agents.
func (p *Population) Len() int { return len(p.gather()) }

// Tick returns the number of completed ticks.
func (p *Population) Tick() int64 { return p.tick }

// Time returns the simulation time in days.
func (p *Population) Time() float64 { return p.now }

// Seed returns the seed the population was built with.
func (p *Population) Seed() uint64 { return p.seed }

// Day returns the number of whole days elapsed.
func (p *Population) Day() int {
	return int(math.Floor(p.now/p.dayLength + 1e-9))
}
