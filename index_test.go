package allocmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketForSizeBoundaries(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{16, 0},
		{32, 0},
		{33, 1},
		{48, 1},
		{49, 1},
		{64, 1},
		{65, 2},
		{1 << 14, 9},       // 16384, top of bucket 9's range
		{1<<14 + 1, 10},    // 16385, spills into the unbounded bucket
		{1 << 20, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketForSize(tt.size), "size=%d", tt.size)
	}
}

func TestBucketRangeCoversBucketForSize(t *testing.T) {
	// the size just above a bucket's lower bound, and its upper bound when
	// it has one, must map back to that same bucket.
	for b := 0; b < numBuckets; b++ {
		lo, hi := bucketRange(b)
		probe := lo + 1
		if hi != 0 {
			assert.LessOrEqual(t, lo, hi)
		}
		assert.Equal(t, b, bucketForSize(probe), "bucket %d range (%d,%d]", b, lo, hi)
		if hi != 0 {
			assert.Equal(t, b, bucketForSize(hi), "bucket %d range (%d,%d]", b, lo, hi)
		}
	}
}

func TestBucketHeadRoundTrip(t *testing.T) {
	p, err := NewSliceProvider(DefaultChunkSize * 4)
	assert.NoError(t, err)
	a, err := New(p)
	assert.NoError(t, err)

	// the initial chunk lands in exactly one bucket; all others are empty.
	nonEmpty := 0
	for i := 0; i < numBuckets; i++ {
		if a.bucketHead(i) != 0 {
			nonEmpty++
		}
	}
	assert.Equal(t, 1, nonEmpty)

	// clearing and setting a head round-trips through the bias encoding.
	a.setBucketHead(0, a.firstBlock())
	assert.Equal(t, a.firstBlock(), a.bucketHead(0))
	a.setBucketHead(0, 0)
	assert.Equal(t, uintptr(0), a.bucketHead(0))
}

func TestBiasOfRoundTrip(t *testing.T) {
	p, err := NewSliceProvider(DefaultChunkSize * 2)
	assert.NoError(t, err)
	a, err := New(p)
	assert.NoError(t, err)

	hdr := a.firstBlock()
	bias := a.biasOf(hdr)
	assert.Equal(t, hdr, a.ptrFromBias(bias))
	assert.Equal(t, uint32(0), a.biasOf(0))
	assert.Equal(t, uintptr(0), a.ptrFromBias(0))
}
