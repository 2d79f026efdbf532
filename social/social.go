// Package social holds an agent's static peer links and the saturating
// influence they exert.
package social

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSaturation is the k in n/(k+n): the link count at which influence
// reaches half its mean weight.
const DefaultSaturation = 5

// Link is a weighted reference to another agent by id.
type Link struct {
	Peer   int     `json:"peer"`
	Weight float64 `json:"weight"` // in [0, 1]
}

// Network is one agent's friends and bullies. It is built once at setup and
// never changes afterwards.
type Network struct {
	Friends []Link `json:"friends"`
	Bullies []Link `json:"bullies"`

	friendInfluence float64
	bullyInfluence  float64
}

// NewNetwork builds a network and precomputes its influences with saturation k.
func NewNetwork(friends, bullies []Link, k float64) Network {
	return Network{
		Friends:         friends,
		Bullies:         bullies,
		friendInfluence: SaturatedMeanInfluence(friends, k),
		bullyInfluence:  SaturatedMeanInfluence(bullies, k),
	}
}

// FriendInfluence is the saturated mean weight of the friend links.
func (n Network) FriendInfluence() float64 { return n.friendInfluence }

// BullyInfluence is the saturated mean weight of the bully links.
func (n Network) BullyInfluence() float64 { return n.bullyInfluence }

// SaturatedMeanInfluence returns mean(weight) * n/(k+n) for the n links, or 0
// for an empty set.
func SaturatedMeanInfluence(links []Link, k float64) float64 {
	n := len(links)
	if n == 0 {
		return 0
	}
	var total float64
	for _, l := range links {
		total += l.Weight
	}
	fn := float64(n)
	return (total / fn) * (fn / (k + fn))
}

// WeightDist is the distribution link weights are drawn from before clipping
// to [0, 1].
type WeightDist struct {
	Mean  float64 `yaml:"mean"`
	Sigma float64 `yaml:"sigma"`
}

// DefaultWeights is roughly centred in [0, 1].
var DefaultWeights = WeightDist{Mean: 0.5, Sigma: 0.15}

// SampleLinks picks n distinct peers from candidates, never self, and gives
// each a clipped normal weight. Fewer than n links are returned when there are
// not enough candidates.
func SampleLinks(rng *rand.Rand, self int, candidates []int, n int, w WeightDist) []Link {
	if n <= 0 {
		return nil
	}
	others := make([]int, 0, len(candidates))
	for _, id := range candidates {
		if id != self {
			others = append(others, id)
		}
	}
	if n > len(others) {
		n = len(others)
	}
	if n == 0 {
		return nil
	}

	dist := distuv.Normal{Mu: w.Mean, Sigma: w.Sigma, Src: rng}
	links := make([]Link, n)
	for i, j := range rng.Perm(len(others))[:n] {
		links[i] = Link{Peer: others[j], Weight: clip01(dist.Rand())}
	}
	return links
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
