package population

import (
	"context"
	"log/slog"
)

// Hooks are called by Run around each tick. Any hook may be nil; an error
// returned by a hook stops the run.
type Hooks struct {
	// BeforeTick runs before the agents are stepped.
	BeforeTick func(p *Population)

	// AfterTick runs once all agents have been stepped.
	AfterTick func(p *Population, res StepResult) error

	// OnDay runs when the clock crosses into a new day.
	OnDay func(p *Population, day int) error
}

// Run advances the population for the given number of ticks, or until ctx is
// cancelled.
func (p *Population) Run(ctx context.Context, ticks int64, dt float64, hooks Hooks) error {
	slog.Info("run started",
		"agents", p.Len(),
		"ticks", ticks,
		"dt", dt,
		"seed", p.seed,
	)

	day := p.Day()
	for i := int64(0); i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("run cancelled", "tick", p.tick)
			return err
		}

		if hooks.BeforeTick != nil {
			hooks.BeforeTick(p)
		}

		res, err := p.Step(dt)
		if err != nil {
			return err
		}

		if hooks.AfterTick != nil {
			if err := hooks.AfterTick(p, res); err != nil {
				return err
			}
		}

		if d := p.Day(); d > day {
			day = d
			if hooks.OnDay != nil {
				if err := hooks.OnDay(p, day); err != nil {
					return err
				}
			}
		}
	}

	slog.Info("run finished", "tick", p.tick, "time", p.now)
	return nil
}
