package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(s string) []string {
	return strings.Fields(s)
}

func TestAlignedBuffer(t *testing.T) {
	var b alignedBuffer
	_, _, ok := b.pop()
	assert.False(t, ok)

	b.push(tokens("s1"), tokens("a b c"))
	b.push(tokens("s2"), tokens("a"))
	b.push(tokens("s3"), tokens("a b"))
	b.push(tokens("s4"), tokens("x y"))
	require.Equal(t, 4, b.len())

	b.sortByTarget()
	var order []string
	for {
		src, tgt, ok := b.pop()
		if !ok {
			break
		}
		order = append(order, src[0]+":"+strings.Join(tgt, ""))
	}
	// Longest first; s3 and s4 have the same length and keep their relative order (s4 is popped first).
	assert.Equal(t, []string{"s1:abc", "s4:xy", "s3:ab", "s2:a"}, order)
	assert.Equal(t, 0, b.len())
}

func TestAlignedBufferReverse(t *testing.T) {
	var b alignedBuffer
	for _, s := range []string{"1", "2", "3"} {
		b.push(tokens(s), tokens(s))
	}
	b.reverse()
	for _, expected := range []string{"1", "2", "3"} {
		src, tgt, ok := b.pop()
		require.True(t, ok)
		assert.Equal(t, expected, src[0])
		assert.Equal(t, expected, tgt[0])
	}
	b.push(tokens("x"), tokens("y"))
	b.clear()
	assert.Equal(t, 0, b.len())
}
