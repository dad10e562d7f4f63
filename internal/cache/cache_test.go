package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The serialized form is what Redis stores; a round trip through it must
// reproduce a match result bit-for-bit, including empty per-query lists.
func TestMatchResultSerializationRoundTrip(t *testing.T) {
	original := MatchResult{
		Indices:    [][]uint32{{0, 3, 7}, {}, {42}},
		Counts:     []int{3, 0, 1},
		Overflowed: []bool{false, false, true},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded MatchResult
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original.Counts, decoded.Counts)
	assert.Equal(t, original.Overflowed, decoded.Overflowed)
	require.Len(t, decoded.Indices, 3)
	assert.Equal(t, []uint32{0, 3, 7}, decoded.Indices[0])
	assert.Empty(t, decoded.Indices[1])
	assert.Equal(t, []uint32{42}, decoded.Indices[2])
}

func TestAtomCountSerializationRoundTrip(t *testing.T) {
	raw, err := json.Marshal(1018)
	require.NoError(t, err)
	var n int
	require.NoError(t, json.Unmarshal(raw, &n))
	assert.Equal(t, 1018, n)
}
