package domain

import (
	"github.com/questx-lab/prizeengine/internal/entity"
)

// remainingWeights subtracts one unit of weight per recorded spin from the
// snapshot. The snapshot itself is never modified.
func remainingWeights(snapshot []entity.RouletteElement, spins []entity.RouletteSpin) []int {
	chosen := map[string]int{}
	for _, s := range spins {
		chosen[s.ChosenID]++
	}

	remaining := make([]int, len(snapshot))
	for i, e := range snapshot {
		remaining[i] = e.Weight - chosen[e.ID]
		if remaining[i] < 0 {
			remaining[i] = 0
		}
	}

	return remaining
}

func totalWeight(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}

	return total
}

// drawWeighted lays the weights out as contiguous intervals over [0, total),
// draws a uniform point and returns the index of the interval owning it. It
// returns -1 if the total weight is zero.
func drawWeighted(weights []int, randIntn func(int) int) int {
	total := totalWeight(weights)
	if total <= 0 {
		return -1
	}

	point := randIntn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}

		if point < w {
			return i
		}

		point -= w
	}

	return -1
}
