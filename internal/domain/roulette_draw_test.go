package domain

import (
	"testing"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/crypto"
	"github.com/stretchr/testify/require"
)

func Test_drawWeighted_Intervals(t *testing.T) {
	weights := []int{3, 0, 1}
	expected := []int{0, 0, 0, 2}
	for point, index := range expected {
		got := drawWeighted(weights, func(n int) int {
			require.Equal(t, 4, n)
			return point
		})
		require.Equal(t, index, got)
	}

	require.Equal(t, -1, drawWeighted([]int{0, 0}, crypto.RandIntn))
	require.Equal(t, -1, drawWeighted(nil, crypto.RandIntn))
}

func Test_remainingWeights(t *testing.T) {
	snapshot := []entity.RouletteElement{
		{ID: "A", Weight: 3},
		{ID: "B", Weight: 1},
	}

	require.Equal(t, []int{3, 1}, remainingWeights(snapshot, nil))
	require.Equal(t, []int{1, 1}, remainingWeights(snapshot, []entity.RouletteSpin{
		{ChosenID: "A"}, {ChosenID: "A"},
	}))
	require.Equal(t, []int{0, 0}, remainingWeights(snapshot, []entity.RouletteSpin{
		{ChosenID: "A"}, {ChosenID: "B"}, {ChosenID: "A"}, {ChosenID: "A"},
	}))

	// The snapshot is left untouched.
	require.Equal(t, 3, snapshot[0].Weight)
}

func Test_drawWeighted_Convergence(t *testing.T) {
	// Over {A:3, B:1} every full session draws A three times, and the first
	// draw is A with probability 3/4.
	const trials = 20000
	firstA := 0
	for i := 0; i < trials; i++ {
		weights := []int{3, 1}
		for step := 0; step < 4; step++ {
			index := drawWeighted(weights, crypto.RandIntn)
			require.NotEqual(t, -1, index)
			if step == 0 && index == 0 {
				firstA++
			}
			weights[index]--
		}
		require.Equal(t, 0, totalWeight(weights))
	}

	share := float64(firstA) / trials
	require.InDelta(t, 0.75, share, 0.02)
}
