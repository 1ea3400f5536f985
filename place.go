/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package allocmem

// FitPolicy selects the strategy findFit uses to pick a free block.
type FitPolicy int

const (
	// FitPolicyBestFit is spec §4.3's default: start at the bucket that
	// covers asize, walk its size-sorted list for the first fit, and
	// only advance to larger buckets on a miss.
	FitPolicyBestFit FitPolicy = iota

	// FitPolicyNextFit ports original_source/mm.c's NEXT_FIT rover: walk
	// the arena's blocks in address order starting at the last placement
	// point, wrapping once, without consulting the buckets. Supplements spec.md with the reference's
	// alternative policy (see SPEC_FULL.md §8); not the default because
	// spec §4.3 specifies best-fit-within-bucket.
	FitPolicyNextFit
)

// findFit returns the header address of a free block able to satisfy an
// asize-byte request, or 0 if none exists. Search begins at the smallest
// bucket whose range covers asize (spec §4.3).
func (a *Allocator) findFit(asize int) uintptr {
	if a.fitPolicy == FitPolicyNextFit {
		return a.findFitNextFit(asize)
	}
	for bucket := bucketForSize(asize); bucket < numBuckets; bucket++ {
		for cur := a.bucketHead(bucket); cur != 0; cur = a.ptrFromBias(succBias(cur)) {
			if blockSize(cur) >= asize {
				return cur
			}
		}
	}
	return 0
}

// findFitNextFit implements FitPolicyNextFit: scan forward through the
// arena from the rover, wrapping once, returning the first free block
// large enough. This forgoes the segregated index's bucket ordering by
// design — it is a faithful port of original_source/mm.c's rover search,
// kept for comparison/benchmarking (see cmd/allocbench).
func (a *Allocator) findFitNextFit(asize int) uintptr {
	start := a.rover
	if start == 0 {
		start = a.firstBlock()
	}

	for hdr := start; blockSize(hdr) > 0; hdr = nextBlock(hdr) {
		if !isAllocated(hdr) && blockSize(hdr) >= asize {
			a.rover = hdr
			return hdr
		}
	}
	for hdr := a.firstBlock(); hdr != start; hdr = nextBlock(hdr) {
		if blockSize(hdr) == 0 {
			break
		}
		if !isAllocated(hdr) && blockSize(hdr) >= asize {
			a.rover = hdr
			return hdr
		}
	}
	return 0
}

// place commits a free block hdr (of size >= asize) to an asize-byte
// allocation, splitting off a remainder block when the remainder would
// be at least minBlockSize (spec §4.4). Unlike original_source/mm.c's
// place(), the split-off remainder is inserted directly without a
// redundant re-coalesce: its right neighbor is the block that followed
// the original free block, which immediate coalescing guarantees is
// allocated (or the epilogue), so no merge is possible
// (spec §9 calls the reference's extra step "redundant but not
// incorrect"; we simply omit it).
//
// Returns hdr (the now-allocated block's header address).
func (a *Allocator) place(hdr uintptr, asize int) uintptr {
	total := blockSize(hdr)
	a.freelistRemove(bucketForSize(total), hdr)

	remainder := total - asize
	if remainder >= minBlockSize {
		writeTags(hdr, asize, true)
		rem := nextBlock(hdr)
		writeTags(rem, remainder, false)
		a.freelistInsert(bucketForSize(remainder), rem)
	} else {
		writeTags(hdr, total, true)
	}
	return hdr
}
