package dataset

import (
	"cmp"
	"slices"
)

// linePair is one tokenized sentence pair.
type linePair struct {
	source, target []string
}

// alignedBuffer holds tokenized sentence pairs read ahead from a pair of corpora.
//
// Source and target are stored together, so both sides always have the same length.
// Pairs are consumed from the end of the buffer.
type alignedBuffer struct {
	pairs []linePair
}

func (b *alignedBuffer) len() int {
	return len(b.pairs)
}

func (b *alignedBuffer) push(source, target []string) {
	b.pairs = append(b.pairs, linePair{source: source, target: target})
}

// pop removes and returns the last pair. ok is false if the buffer is empty.
func (b *alignedBuffer) pop() (source, target []string, ok bool) {
	n := len(b.pairs)
	if n == 0 {
		return nil, nil, false
	}
	last := b.pairs[n-1]
	b.pairs[n-1] = linePair{}
	b.pairs = b.pairs[:n-1]
	return last.source, last.target, true
}

// sortByTarget sorts the pairs by ascending target length, keeping the order of pairs of equal length.
// Since pairs are popped from the end, the longest are consumed first.
func (b *alignedBuffer) sortByTarget() {
	slices.SortStableFunc(b.pairs, func(x, y linePair) int {
		return cmp.Compare(len(x.target), len(y.target))
	})
}

// reverse the order of the pairs, so popping from the end returns them in reading order.
func (b *alignedBuffer) reverse() {
	slices.Reverse(b.pairs)
}

func (b *alignedBuffer) clear() {
	clear(b.pairs)
	b.pairs = b.pairs[:0]
}
