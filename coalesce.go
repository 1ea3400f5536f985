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

// coalesce merges hdr with any free immediate neighbors and inserts the
// resulting block into its (possibly new) bucket, per spec §4.5's
// four-case table. hdr must NOT currently be linked into any bucket
// list — both Release and extend hand coalesce a block that was never
// inserted, so coalesce is the single place that performs the eventual
// insert. This resolves the ordering spec §4.5 and §4.7 describe
// ("coalesce...inserts the resulting block") versus §4.10's "insert the
// block...then coalesce": both end in the same state, a single insert
// of whichever block (hdr, or a merge of hdr with one or both
// neighbors) survives, so we always call coalesce before any insert.
//
// Returns the header address of the surviving block.
func (a *Allocator) coalesce(hdr uintptr) uintptr {
	prev := prevBlock(hdr)
	next := nextBlock(hdr)
	prevFree := !isAllocated(prev)
	nextFree := !isAllocated(next)
	size := blockSize(hdr)

	switch {
	case !prevFree && !nextFree: // Case 1: A | A
		a.freelistInsert(bucketForSize(size), hdr)
		return hdr

	case !prevFree && nextFree: // Case 2: A | F
		nsize := blockSize(next)
		a.freelistRemove(bucketForSize(nsize), next)
		size += nsize
		writeTags(hdr, size, false)
		a.freelistInsert(bucketForSize(size), hdr)
		return hdr

	case prevFree && !nextFree: // Case 3: F | A
		psize := blockSize(prev)
		a.freelistRemove(bucketForSize(psize), prev)
		size += psize
		writeTags(prev, size, false)
		a.freelistInsert(bucketForSize(size), prev)
		return prev

	default: // Case 4: F | F
		psize := blockSize(prev)
		nsize := blockSize(next)
		a.freelistRemove(bucketForSize(psize), prev)
		a.freelistRemove(bucketForSize(nsize), next)
		size += psize + nsize
		writeTags(prev, size, false)
		a.freelistInsert(bucketForSize(size), prev)
		return prev
	}
}
