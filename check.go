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

import "fmt"

// Check verifies every structural invariant in spec §8 and returns one
// error per violation found (nil if the arena is consistent). Like
// original_source/mm.c's mm_checkheap, each violation is also printed
// to the allocator's diagnostics writer (os.Stderr by default); unlike
// it, violations are also returned so callers can assert on them.
func (a *Allocator) Check() []error { return a.check(0) }

// CheckLine is Check, annotated with a call-site line number — the Go
// analogue of calling mm_checkheap(__LINE__) at a suspect call site.
func (a *Allocator) CheckLine(line int) []error { return a.check(line) }

func (a *Allocator) check(line int) []error {
	var errs []error
	report := func(format string, args ...interface{}) {
		err := fmt.Errorf(format, args...)
		errs = append(errs, err)
		if line != 0 {
			fmt.Fprintf(a.diag, "allocmem: check at line %d: %v\n", line, err)
		} else {
			fmt.Fprintf(a.diag, "allocmem: check: %v\n", err)
		}
	}

	a.checkSentinels(report)
	freeInHeap := a.checkHeapWalk(report)
	freeInLists := a.checkFreeLists(report)

	if freeInHeap != freeInLists {
		report("free block count mismatch: %d via heap walk, %d via free lists", freeInHeap, freeInLists)
	}

	return errs
}

func (a *Allocator) checkSentinels(report func(string, ...interface{})) {
	pro := a.prologueAddr()
	if blockSize(pro) != prologueSize || !isAllocated(pro) {
		report("prologue block malformed at %#x", pro)
	}
	if header(pro) != load32(footerAddr(pro)) {
		report("prologue header/footer mismatch at %#x", pro)
	}
	if pro%8 != 4 {
		report("prologue is not aligned at %#x", pro)
	}

	epi := a.epilogueAddr()
	if blockSize(epi) != 0 || !isAllocated(epi) {
		report("epilogue block malformed at %#x", epi)
	}
}

// checkHeapWalk walks every real block left-to-right and returns the
// number of free blocks observed.
func (a *Allocator) checkHeapWalk(report func(string, ...interface{})) int {
	freeCount := 0
	prevWasFree := false
	lo := a.firstBlock()
	hi := a.epilogueAddr()

	for hdr := lo; hdr < hi; hdr = nextBlock(hdr) {
		size := blockSize(hdr)
		if size < minBlockSize || size%8 != 0 {
			report("block at %#x has invalid size %d", hdr, size)
			break // can't safely continue walking past a corrupt size
		}
		if header(hdr) != load32(footerAddr(hdr)) {
			report("block at %#x: header != footer", hdr)
		}
		if hdr%8 != 4 {
			report("block at %#x is not 8-byte aligned at the payload", hdr)
		}

		free := !isAllocated(hdr)
		if free {
			freeCount++
			if prevWasFree {
				report("two consecutive free blocks ending at %#x", hdr)
			}
			bucket := bucketForSize(size)
			rangeLo, rangeHi := bucketRange(bucket)
			if size <= rangeLo || (rangeHi != 0 && size > rangeHi) {
				report("free block at %#x (size %d) does not fit bucket %d's range", hdr, size, bucket)
			}
		}
		prevWasFree = free
	}
	return freeCount
}

// checkFreeLists walks every bucket's list and returns the total number
// of free blocks found across all buckets.
func (a *Allocator) checkFreeLists(report func(string, ...interface{})) int {
	total := 0
	arenaLo := a.basePtr
	arenaHi := a.epilogueAddr()

	for bucket := 0; bucket < numBuckets; bucket++ {
		var prev uintptr
		lastSize := -1
		for cur := a.bucketHead(bucket); cur != 0; cur = a.ptrFromBias(succBias(cur)) {
			total++
			if cur < arenaLo || cur >= arenaHi {
				report("bucket %d: block at %#x is outside arena bounds", bucket, cur)
				break
			}
			if isAllocated(cur) {
				report("bucket %d: block at %#x is allocated but listed as free", bucket, cur)
			}
			size := blockSize(cur)
			if bucketForSize(size) != bucket {
				report("bucket %d: block at %#x (size %d) is outside the bucket's size range", bucket, cur, size)
			}
			if size < lastSize {
				report("bucket %d: block at %#x breaks non-decreasing size order", bucket, cur)
			}
			lastSize = size

			predPtr := a.ptrFromBias(predBias(cur))
			if predPtr != prev {
				report("bucket %d: pred(%#x) != previous list node", bucket, cur)
			}
			if predPtr != 0 {
				if succ := a.ptrFromBias(succBias(predPtr)); succ != cur {
					report("bucket %d: succ(pred(%#x)) != %#x", bucket, cur, cur)
				}
			}
			prev = cur
		}
	}
	return total
}
