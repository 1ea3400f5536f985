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

import "unsafe"

// Block layout, following spec §3.1: a 4-byte header, a variable-size
// payload, and a 4-byte footer that is an exact copy of the header. The
// header's low 3 bits carry flags (bit 0 = allocated); the remaining bits
// hold the total block size (header+payload+footer), which is always a
// multiple of 8.
const (
	headerSize   = 4
	footerSize   = 4
	overhead     = headerSize + footerSize
	minBlockSize = 16 // room for header, footer, and 8 bytes of free-list links

	allocBit  = uint32(1)
	sizeMask  = ^uint32(0x7)
	prologueSize = 2 * wordSize // header + footer, no payload
	wordSize     = 4
)

func packTag(size int, allocated bool) uint32 {
	v := uint32(size) &^ 0x7
	if allocated {
		v |= allocBit
	}
	return v
}

func tagSize(tag uint32) int    { return int(tag & sizeMask) }
func tagAllocated(tag uint32) bool { return tag&allocBit != 0 }

func load32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func store32(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

// header reads the header word at a block's start address.
func header(hdr uintptr) uint32 { return load32(hdr) }

// blockSize returns the total size (header+payload+footer) of the block
// whose header is at hdr.
func blockSize(hdr uintptr) int { return tagSize(header(hdr)) }

// isAllocated reports whether the block whose header is at hdr is
// currently allocated.
func isAllocated(hdr uintptr) bool { return tagAllocated(header(hdr)) }

// footerAddr returns the address of the block's footer word.
func footerAddr(hdr uintptr) uintptr {
	return hdr + uintptr(blockSize(hdr)) - footerSize
}

// payloadAddr returns the payload address (what Acquire hands to callers)
// for the block whose header is at hdr.
func payloadAddr(hdr uintptr) uintptr { return hdr + headerSize }

// headerFromPayload is the inverse of payloadAddr.
func headerFromPayload(p uintptr) uintptr { return p - headerSize }

// nextBlock returns the header address of the block immediately to the
// right of hdr. Valid even when hdr is the last real block: it then
// returns the epilogue's address.
func nextBlock(hdr uintptr) uintptr {
	return hdr + uintptr(blockSize(hdr))
}

// prevBlock returns the header address of the block immediately to the
// left of hdr, using the left neighbor's footer (which carries its own
// size) per spec §3.1's boundary-tag rationale. Valid even when hdr is
// the first real block: it then returns the prologue's address.
func prevBlock(hdr uintptr) uintptr {
	prevFooter := hdr - footerSize
	return hdr - uintptr(tagSize(load32(prevFooter)))
}

// writeTags writes a header/footer pair describing size bytes with the
// given allocated flag at hdr.
func writeTags(hdr uintptr, size int, allocated bool) {
	v := packTag(size, allocated)
	store32(hdr, v)
	store32(hdr+uintptr(size)-footerSize, v)
}

// writeEpilogue writes a degenerate zero-size allocated header (no
// footer, no payload) at addr, per spec §3.2.
func writeEpilogue(addr uintptr) {
	store32(addr, packTag(0, true))
}

// Free-block link fields occupy the first 8 payload bytes: a 4-byte
// predecessor bias followed by a 4-byte successor bias (spec §3.3).
func predBias(hdr uintptr) uint32 { return load32(payloadAddr(hdr)) }
func succBias(hdr uintptr) uint32 { return load32(payloadAddr(hdr) + 4) }

func setPredBias(hdr uintptr, bias uint32) { store32(payloadAddr(hdr), bias) }
func setSuccBias(hdr uintptr, bias uint32) { store32(payloadAddr(hdr)+4, bias) }

// roundUp8 rounds n up to the next multiple of 8.
func roundUp8(n int) int {
	return (n + 7) &^ 7
}
