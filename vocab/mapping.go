package vocab

import "strings"

// FactorSeparator separates the factors of a source token, e.g. "houses|house|NNS".
const FactorSeparator = "|"

// MapToken maps one token with the dictionary.
//
// If vocabSize > 0, indices >= vocabSize are also mapped to UnknownIndex. This protects against a dictionary
// larger than the configured vocabulary size.
func MapToken(d *Dictionary, token string, vocabSize int) int {
	idx := d.Lookup(token)
	if vocabSize > 0 && idx >= vocabSize {
		return UnknownIndex
	}
	return idx
}

// MapTokens maps each token with the dictionary, see MapToken.
func MapTokens(d *Dictionary, tokens []string, vocabSize int) []int {
	ids := make([]int, len(tokens))
	for ii, token := range tokens {
		ids[ii] = MapToken(d, token, vocabSize)
	}
	return ids
}

// MapFactored maps each token to a tuple of indices, one per dictionary.
//
// If useFactor is true, each token is split on FactorSeparator and factor i is mapped with dicts[i], each
// factor falling back to UnknownIndex independently. Missing factors map to UnknownIndex and extra factors
// are ignored, so every tuple has exactly len(dicts) entries.
//
// If useFactor is false, the whole token is mapped with dicts[0] and each tuple has one element.
func MapFactored(dicts []*Dictionary, tokens []string, useFactor bool, vocabSize int) [][]int {
	ids := make([][]int, len(tokens))
	for ii, token := range tokens {
		if !useFactor {
			ids[ii] = []int{MapToken(dicts[0], token, vocabSize)}
			continue
		}
		factors := strings.Split(token, FactorSeparator)
		tuple := make([]int, len(dicts))
		for fIdx, d := range dicts {
			if fIdx < len(factors) {
				tuple[fIdx] = MapToken(d, factors[fIdx], vocabSize)
			} else {
				tuple[fIdx] = UnknownIndex
			}
		}
		ids[ii] = tuple
	}
	return ids
}
