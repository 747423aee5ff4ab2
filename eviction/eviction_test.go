package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyRead(t *testing.T) {
	p := NewEvictionPolicy(LRU)
	p.OnPut("01234567")
	p.OnPut("02345678")
	p.OnPut("03456789")

	p.OnGet("01234567")

	assert.Equal(t, "02345678", p.Evict())
	assert.Equal(t, "03456789", p.Evict())
	assert.Equal(t, "01234567", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestFIFOIgnoresReads(t *testing.T) {
	p := NewEvictionPolicy(FIFO)
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	p.OnPut("a")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
}

func TestRemoveForgetsKey(t *testing.T) {
	p := NewEvictionPolicy(LRU)
	p.OnPut("a")
	p.OnPut("b")
	p.Remove("a")
	p.Remove("missing")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestParsePolicyType(t *testing.T) {
	pt, err := ParsePolicyType("")
	require.NoError(t, err)
	assert.Equal(t, LRU, pt)

	pt, err = ParsePolicyType("fifo")
	require.NoError(t, err)
	assert.Equal(t, FIFO, pt)

	_, err = ParsePolicyType("LFU")
	assert.Error(t, err)
}

func TestZeroPolicyTypeIsLRU(t *testing.T) {
	var p Policy
	require.NotPanics(t, func() { p = NewEvictionPolicy("") })

	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	assert.Equal(t, "b", p.Evict())
}
