// Package vocab holds vocabulary dictionaries, mapping tokens to integer indices, and the functions to map
// tokenized sentences to sequences of indices.
//
// Dictionaries are created with Load from a file (see RegisterLoader for the supported formats), or with New
// from an in-memory map.
package vocab

import (
	"maps"
	"sort"
)

// Reserved indices, shared by every dictionary.
const (
	// EndOfSentenceIndex is reserved for the end-of-sentence symbol.
	EndOfSentenceIndex = 0

	// UnknownIndex is used for tokens not in the dictionary, or whose index is beyond the vocabulary size cap.
	UnknownIndex = 1
)

// Dictionary maps token strings to unique non-negative indices.
//
// A Dictionary is not safe for concurrent modification (Truncate), but lookups can be done concurrently.
type Dictionary struct {
	index map[string]int

	// path from where it was loaded, if any.
	path string
}

// New creates a Dictionary from a copy of the given mapping.
func New(index map[string]int) *Dictionary {
	return &Dictionary{index: maps.Clone(index)}
}

// Clone returns a copy of the dictionary that can be modified independently.
func (d *Dictionary) Clone() *Dictionary {
	return &Dictionary{index: maps.Clone(d.index), path: d.path}
}

// Path from where the dictionary was loaded, or "" if it was created with New.
func (d *Dictionary) Path() string {
	return d.path
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.index)
}

// Index returns the index of token, and whether it was found.
func (d *Dictionary) Index(token string) (int, bool) {
	idx, found := d.index[token]
	return idx, found
}

// Lookup returns the index of token, or UnknownIndex if it is not in the dictionary.
func (d *Dictionary) Lookup(token string) int {
	if idx, found := d.index[token]; found {
		return idx
	}
	return UnknownIndex
}

// Truncate removes every entry with index >= size, and returns the number of entries removed.
// If size <= 0 it is a no-op.
func (d *Dictionary) Truncate(size int) int {
	if size <= 0 {
		return 0
	}
	var removed int
	for token, idx := range d.index {
		if idx >= size {
			delete(d.index, token)
			removed++
		}
	}
	return removed
}

// MaxIndex returns the largest index in the dictionary, or -1 if it is empty.
func (d *Dictionary) MaxIndex() int {
	maxIdx := -1
	for _, idx := range d.index {
		maxIdx = max(maxIdx, idx)
	}
	return maxIdx
}

// Tokens returns the tokens in the dictionary sorted by index, and then alphabetically.
func (d *Dictionary) Tokens() []string {
	tokens := make([]string, 0, len(d.index))
	for token := range d.index {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		ii, ij := d.index[tokens[i]], d.index[tokens[j]]
		if ii != ij {
			return ii < ij
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}
