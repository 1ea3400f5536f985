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

// numBuckets is the segregated index's bucket count (spec §3.4's worked
// example; §9 permits 9 or 11 as long as the range invariant holds
// consistently, and 11 is what we implement).
const numBuckets = 11

// bucketIndexSize is the size in bytes of the in-arena bucket-head array:
// one 4-byte bias per bucket.
const bucketIndexSize = numBuckets * wordSize

// bucketForSize returns the index of the smallest bucket whose range
// covers a block of the given total size, per spec §3.4:
//
//	bucket 0:    size <= 32
//	bucket k:    2^(k+4) < size <= 2^(k+5), for k in 1..9
//	bucket 10:   size > 2^14
func bucketForSize(size int) int {
	if size <= 32 {
		return 0
	}
	for k := 1; k <= 9; k++ {
		lo := 1 << uint(k+4)
		hi := 1 << uint(k+5)
		if size > lo && size <= hi {
			return k
		}
	}
	return numBuckets - 1
}

// bucketRange returns the (lo, hi] size range a bucket covers. hi == 0
// means unbounded above (only true for the last bucket).
func bucketRange(bucket int) (lo, hi int) {
	switch {
	case bucket == 0:
		return 0, 32
	case bucket == numBuckets-1:
		return 1 << uint(bucket+4), 0
	default:
		return 1 << uint(bucket+4), 1 << uint(bucket+5)
	}
}

// bucketHeadAddr returns the address of bucket i's head bias slot, which
// lives in the arena itself at basePtr+i*4.
func (a *Allocator) bucketHeadAddr(i int) uintptr {
	return a.basePtr + uintptr(i*wordSize)
}

// bucketHead returns the header address of the first free block in
// bucket i, or 0 if the bucket is empty.
func (a *Allocator) bucketHead(i int) uintptr {
	return a.ptrFromBias(load32(a.bucketHeadAddr(i)))
}

// setBucketHead overwrites bucket i's head to point at hdr (0 clears it).
func (a *Allocator) setBucketHead(i int, hdr uintptr) {
	store32(a.bucketHeadAddr(i), a.biasOf(hdr))
}

// biasOf encodes p as a byte offset from basePtr; 0 denotes null, which
// is safe because no real block can ever start at basePtr itself (the
// bucket-head array occupies that address, per spec §3.3/§4.1).
func (a *Allocator) biasOf(p uintptr) uint32 {
	if p == 0 {
		return 0
	}
	return uint32(p - a.basePtr)
}

// ptrFromBias is the inverse of biasOf.
func (a *Allocator) ptrFromBias(bias uint32) uintptr {
	if bias == 0 {
		return 0
	}
	return a.basePtr + uintptr(bias)
}
