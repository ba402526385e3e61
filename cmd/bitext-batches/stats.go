package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-bitext/dataset"
	"github.com/gomlx/go-bitext/vocab"
)

// epochStats accumulates the statistics of the batches of one epoch.
type epochStats struct {
	batches int
	pairs   int

	sourceTokens, targetTokens             int
	pseudoSourceTokens, pseudoTargetTokens int

	// unknown counts tokens mapped to vocab.UnknownIndex, over all four sides.
	unknown int
}

func (s *epochStats) add(b *dataset.Batch) {
	s.batches++
	s.pairs += b.Len()
	for i := range b.Len() {
		for _, factors := range b.Source[i] {
			if len(factors) > 0 && factors[0] == vocab.UnknownIndex {
				s.unknown++
			}
		}
		s.sourceTokens += len(b.Source[i])
		s.targetTokens += countTokens(b.Target[i], &s.unknown)
		s.pseudoSourceTokens += countTokens(b.PseudoSource[i], &s.unknown)
		s.pseudoTargetTokens += countTokens(b.PseudoTarget[i], &s.unknown)
	}
}

func countTokens(sentence []int, unknown *int) int {
	for _, idx := range sentence {
		if idx == vocab.UnknownIndex {
			*unknown++
		}
	}
	return len(sentence)
}

func (s *epochStats) mean(tokens int) float64 {
	if s.pairs == 0 {
		return 0
	}
	return float64(tokens) / float64(s.pairs)
}

func (s *epochStats) unknownRate() float64 {
	total := s.sourceTokens + s.targetTokens + s.pseudoSourceTokens + s.pseudoTargetTokens
	if total == 0 {
		return 0
	}
	return float64(s.unknown) / float64(total)
}

func (s *epochStats) String() string {
	return fmt.Sprintf("%s batches, %s real + %s pseudo sentence pairs; mean lengths: source %.1f, target %.1f, "+
		"pseudo source %.1f, pseudo target %.1f; unknown tokens %.2f%%",
		humanize.Comma(int64(s.batches)), humanize.Comma(int64(s.pairs)), humanize.Comma(int64(s.pairs)),
		s.mean(s.sourceTokens), s.mean(s.targetTokens),
		s.mean(s.pseudoSourceTokens), s.mean(s.pseudoTargetTokens),
		100*s.unknownRate())
}
