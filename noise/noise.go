// Package noise corrupts token sequences with word dropout and local word-order permutations, the
// corruption used by denoising autoencoders.
//
// All functions are pure: they return new slices and take the random number generator explicitly,
// so seeded generators give reproducible results.
package noise

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

const (
	// DefaultDropProb is the probability of dropping each token.
	DefaultDropProb = 0.1

	// DefaultSwapProb is the probability of starting a swap at each position.
	DefaultSwapProb = 0.1

	// DefaultWindow is the maximum distance between two swapped tokens.
	DefaultWindow = 3
)

// panicf generates an error message and panics with it, in one function.
func panicf(format string, args ...any) {
	err := errors.Errorf(format, args...)
	panic(err)
}

// Drop returns a copy of tokens where each token was independently dropped with probability p.
func Drop[T any](rng *rand.Rand, p float64, tokens []T) []T {
	kept := make([]T, 0, len(tokens))
	for _, token := range tokens {
		if rng.Float64() > p {
			kept = append(kept, token)
		}
	}
	return kept
}

// Permute returns a copy of tokens with random local swaps.
//
// Positions are visited left to right. At each position i not yet swapped, with probability p, a position c
// is drawn uniformly among the positions in [i-window, i+window] not yet swapped (i included), and the tokens
// at i and c are swapped. Both positions are then excluded from further swaps.
//
// So no token moves more than window positions, and each position takes part in at most one swap.
func Permute[T any](rng *rand.Rand, p float64, window int, tokens []T) []T {
	if window < 0 {
		panicf("noise.Permute: window must be >= 0, got %d", window)
	}
	out := make([]T, len(tokens))
	copy(out, tokens)
	swapped := make(map[int]struct{})
	candidates := make([]int, 0, 2*window+1)
	for i := range out {
		if _, done := swapped[i]; done {
			continue
		}
		if rng.Float64() >= p {
			continue
		}
		candidates = candidates[:0]
		for c := max(0, i-window); c <= min(len(out)-1, i+window); c++ {
			if _, done := swapped[c]; !done {
				candidates = append(candidates, c)
			}
		}
		c := candidates[rng.IntN(len(candidates))]
		out[i], out[c] = out[c], out[i]
		swapped[i] = struct{}{}
		swapped[c] = struct{}{}
	}
	return out
}

// Injector applies word dropout followed by local permutations. Create it with NewInjector.
type Injector struct {
	// DropProb is the probability of dropping each token.
	DropProb float64

	// SwapProb is the probability of starting a swap at each position, see Permute.
	SwapProb float64

	// Window is the maximum distance between swapped tokens.
	Window int

	rng *rand.Rand
}

// NewInjector creates an Injector with the default probabilities and window, drawing from rng.
func NewInjector(rng *rand.Rand) *Injector {
	return &Injector{
		DropProb: DefaultDropProb,
		SwapProb: DefaultSwapProb,
		Window:   DefaultWindow,
		rng:      rng,
	}
}

// Apply drops tokens and then permutes the remaining ones. The positions used by the permutation
// are those of the sequence after dropout.
func (inj *Injector) Apply(tokens []string) []string {
	return Permute(inj.rng, inj.SwapProb, inj.Window, Drop(inj.rng, inj.DropProb, tokens))
}
