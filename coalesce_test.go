package allocmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// layoutBlocks writes a prologue, then blocks of the given (size,
// allocated) pairs back to back, then an epilogue, returning the header
// addresses of each real block in order.
func layoutBlocks(a *Allocator, specs [][2]int) []uintptr {
	hdr := a.firstBlock()
	var hdrs []uintptr
	for _, s := range specs {
		writeTags(hdr, s[0], s[1] != 0)
		hdrs = append(hdrs, hdr)
		hdr = nextBlock(hdr)
	}
	writeEpilogue(hdr)
	return hdrs
}

func TestCoalesceAllocAlloc(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{32, 1}, {32, 0}, {32, 1}})

	survivor := a.coalesce(hdrs[1])
	assert.Equal(t, hdrs[1], survivor)
	assert.Equal(t, 32, blockSize(survivor))
	assert.Equal(t, hdrs[1], a.bucketHead(bucketForSize(32)))
}

func TestCoalesceAllocFree(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{32, 1}, {32, 0}, {48, 0}})
	a.freelistInsert(bucketForSize(48), hdrs[2])

	survivor := a.coalesce(hdrs[1])
	assert.Equal(t, hdrs[1], survivor)
	assert.Equal(t, 80, blockSize(survivor))
	assert.False(t, isAllocated(survivor))
}

func TestCoalesceFreeAlloc(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{32, 0}, {32, 0}, {32, 1}})
	a.freelistInsert(bucketForSize(32), hdrs[0])

	survivor := a.coalesce(hdrs[1])
	assert.Equal(t, hdrs[0], survivor)
	assert.Equal(t, 64, blockSize(survivor))
	assert.False(t, isAllocated(survivor))
}

func TestCoalesceFreeFree(t *testing.T) {
	a := newTestArena(t, 256)
	hdrs := layoutBlocks(a, [][2]int{{32, 0}, {32, 0}, {48, 0}})
	a.freelistInsert(bucketForSize(32), hdrs[0])
	a.freelistInsert(bucketForSize(48), hdrs[2])

	survivor := a.coalesce(hdrs[1])
	assert.Equal(t, hdrs[0], survivor)
	assert.Equal(t, 112, blockSize(survivor))
	assert.False(t, isAllocated(survivor))

	// exactly one entry across all buckets: the fully-merged block.
	total := 0
	for b := 0; b < numBuckets; b++ {
		for cur := a.bucketHead(b); cur != 0; cur = a.ptrFromBias(succBias(cur)) {
			total++
		}
	}
	assert.Equal(t, 1, total)
}
