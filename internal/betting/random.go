package betting

import "math/rand/v2"

// Source is the game's only access to randomness. Tests swap in a stub to
// force outcomes.
type Source interface {
	// Draw picks an index with probability proportional to its weight.
	Draw(weights []float64) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

type randSource struct {
	r *rand.Rand
}

// NewRandSource returns a PCG-backed Source. A zero seed draws one from the
// runtime's generator, so production games differ run to run.
func NewRandSource(seed uint64) Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &randSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *randSource) Draw(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return s.r.IntN(len(weights))
	}

	x := s.r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x < w {
			return i
		}
		x -= w
	}
	// float rounding left x just past the last bucket
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

func (s *randSource) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}
