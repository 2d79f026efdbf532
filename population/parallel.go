package population

import (
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/psyche/agent"
)

// parallelThreshold is the minimum population to step concurrently.
// Below this, sequential stepping is faster due to goroutine overhead.
const parallelThreshold = 64

// stepParallel splits the agents into one chunk per worker. Each agent owns
// its random stream and reads nothing from its peers, so results match
// sequential stepping exactly.
func (p *Population) stepParallel(members []*agent.Agent, dt float64) error {
	n := len(members)
	numWorkers := min(p.workers, n)
	chunkSize := (n + numWorkers - 1) / numWorkers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		chunk := members[start:end]
		g.Go(func() error {
			return stepRange(chunk, dt)
		})
	}
	return g.Wait()
}
