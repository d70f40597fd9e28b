package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func runChunker(t *testing.T, frags []string, target, overlap int) []chunk {
	t.Helper()
	i := &ContentIndexer{}
	g, ctx := errgroup.WithContext(context.Background())

	in := make(chan string, len(frags))
	for _, f := range frags {
		in <- f
	}
	close(in)

	var out []chunk
	for c := range i.streamChunk(ctx, g, in, target, overlap) {
		out = append(out, c)
	}
	require.NoError(t, g.Wait())
	return out
}

func TestChunkerGroupsByTokenBudget(t *testing.T) {
	// Each fragment is ~5 tokens (20 runes).
	frag := strings.Repeat("abcd ", 4)
	chunks := runChunker(t, []string{frag, frag, frag, frag}, 10, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Pos)
	assert.Equal(t, 1, chunks[1].Pos)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.TokenCnt, 10)
	}
}

func TestChunkerFlushesTail(t *testing.T) {
	chunks := runChunker(t, []string{"short one"}, 100, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short one", chunks[0].Text)
}

func TestChunkerNoInput(t *testing.T) {
	chunks := runChunker(t, nil, 100, 0)
	assert.Empty(t, chunks)
}

func TestChunkerOverlapCarriesTail(t *testing.T) {
	frags := []string{
		strings.Repeat("a", 40), // ~10 tokens
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	chunks := runChunker(t, frags, 10, 5)
	require.GreaterOrEqual(t, len(chunks), 2)

	// The second chunk starts with the tail of the first.
	assert.Contains(t, chunks[1].Text, strings.Repeat("a", 40))
	assert.Contains(t, chunks[1].Text, strings.Repeat("b", 40))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 1, approxTokens("abc"))
	assert.Equal(t, 1, approxTokens("abcd"))
	assert.Equal(t, 2, approxTokens("abcde"))
}
