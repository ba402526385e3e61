package noise

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	s := make([]int, n)
	for ii := range s {
		s[ii] = ii
	}
	return s
}

func TestDropLengthLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	const length, trials = 50, 2000
	input := sequence(length)
	var total int
	for range trials {
		out := Drop(rng, DefaultDropProb, input)
		total += len(out)
		// Order of the kept tokens is preserved.
		for ii := 1; ii < len(out); ii++ {
			require.Less(t, out[ii-1], out[ii])
		}
	}
	mean := float64(total) / trials
	assert.InDelta(t, 0.9*length, mean, 0.5, "mean length after dropout")
	assert.Equal(t, sequence(length), input, "input must not be modified")
}

func TestDropExtremes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	assert.Equal(t, []int{0, 1, 2}, Drop(rng, 0, sequence(3)))
	assert.Empty(t, Drop(rng, 1, sequence(3)))
	assert.Empty(t, Drop(rng, 0.5, []int{}))
}

func TestPermuteDisplacementBound(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for trial := range 500 {
		length := 1 + trial%40
		input := sequence(length)
		// High swap probability exercises the eligibility rule.
		out := Permute(rng, 0.7, DefaultWindow, input)
		require.Len(t, out, length)
		moved := 0
		for pos, token := range out {
			displacement := pos - token
			if displacement < 0 {
				displacement = -displacement
			}
			require.LessOrEqual(t, displacement, DefaultWindow, "trial %d: %v", trial, out)
			if displacement != 0 {
				moved++
				// Swaps are pairwise: the token at our original slot must be the one from our current slot.
				require.Equal(t, pos, out[token], "trial %d: position swapped more than once in %v", trial, out)
			}
		}
		require.Equal(t, sequence(length), input, "input must not be modified")
	}
}

func TestPermuteDeterministic(t *testing.T) {
	input := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	a := Permute(rand.New(rand.NewPCG(9, 9)), 0.5, 3, input)
	b := Permute(rand.New(rand.NewPCG(9, 9)), 0.5, 3, input)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, input, a)
}

func TestPermuteEdgeCases(t *testing.T) {
	rng := rand.New(rand.NewPCG(0, 0))
	assert.Empty(t, Permute(rng, 1, 3, []int{}))
	assert.Equal(t, []int{0}, Permute(rng, 1, 3, []int{0}))
	assert.Equal(t, sequence(10), Permute(rng, 0, 3, sequence(10)))
	assert.Equal(t, sequence(10), Permute(rng, 1, 0, sequence(10)), "window 0 can only swap a token with itself")
	assert.Panics(t, func() { Permute(rng, 0.5, -1, sequence(3)) })
}

func TestInjector(t *testing.T) {
	inj := NewInjector(rand.New(rand.NewPCG(11, 13)))
	assert.Equal(t, DefaultDropProb, inj.DropProb)
	assert.Equal(t, DefaultSwapProb, inj.SwapProb)
	assert.Equal(t, DefaultWindow, inj.Window)

	input := []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9"}
	var total int
	for range 1000 {
		out := inj.Apply(input)
		assert.LessOrEqual(t, len(out), len(input))
		total += len(out)
	}
	assert.InDelta(t, 9.0, float64(total)/1000, 0.3)

	inj.DropProb, inj.SwapProb = 0, 0
	assert.Equal(t, input, inj.Apply(input))
}
