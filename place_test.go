package allocmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceSplitsWhenRemainderLargeEnough(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{64, 0}})
	a.freelistInsert(bucketForSize(64), hdrs[0])

	got := a.place(hdrs[0], 32)
	assert.Equal(t, hdrs[0], got)
	assert.Equal(t, 32, blockSize(got))
	assert.True(t, isAllocated(got))

	rem := nextBlock(got)
	assert.Equal(t, 32, blockSize(rem))
	assert.False(t, isAllocated(rem))
	assert.Equal(t, rem, a.bucketHead(bucketForSize(32)))
}

func TestPlaceDoesNotSplitWhenRemainderTooSmall(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{40, 0}})
	a.freelistInsert(bucketForSize(40), hdrs[0])

	got := a.place(hdrs[0], 32) // remainder would be 8, below minBlockSize
	assert.Equal(t, 40, blockSize(got))
	assert.True(t, isAllocated(got))
}

func TestFindFitBestFitSkipsTooSmall(t *testing.T) {
	a := newTestArena(t, 512)
	hdrs := layoutBlocks(a, [][2]int{{16, 0}, {64, 0}})
	a.freelistInsert(bucketForSize(16), hdrs[0])
	a.freelistInsert(bucketForSize(64), hdrs[1])

	got := a.findFit(32)
	assert.Equal(t, hdrs[1], got)
}

func TestFindFitReturnsZeroWhenNoneFits(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{16, 0}})
	a.freelistInsert(bucketForSize(16), hdrs[0])

	assert.Equal(t, uintptr(0), a.findFit(4096))
}

func TestFindFitNextFitWraps(t *testing.T) {
	a := newTestArena(t, 512)
	a.fitPolicy = FitPolicyNextFit
	hdrs := layoutBlocks(a, [][2]int{{32, 1}, {32, 0}, {32, 1}, {32, 0}})

	// starting right at the last free block finds it without wrapping.
	a.rover = hdrs[3]
	assert.Equal(t, hdrs[3], a.findFitNextFit(16))

	// starting past every free block (at the epilogue) must wrap around
	// to the earliest free block in arena order.
	a.rover = nextBlock(hdrs[3])
	assert.Equal(t, hdrs[1], a.findFitNextFit(16))
}
