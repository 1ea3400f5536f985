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

import (
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// ArenaProvider is the external collaborator spec §1/§6 describes: it
// owns the actual memory backing the arena and grows it on request.
// Growth is monotonic — an ArenaProvider must never shrink or move
// already-handed-out addresses.
type ArenaProvider interface {
	// ArenaLo returns the fixed, 8-byte-aligned low address of the
	// arena. It never changes after the provider is constructed.
	ArenaLo() uintptr

	// ArenaHi returns the current high-water mark of the arena: the
	// address one past the last byte that has been handed out via
	// Extend.
	ArenaHi() uintptr

	// Extend grows the arena by n bytes and returns the previous
	// ArenaHi (the start of the newly available region) and true, or
	// (0, false) if the provider cannot grant the request.
	Extend(n int) (old uintptr, ok bool)
}

// SliceProvider is the in-process reference ArenaProvider: it reserves
// a fixed-capacity []byte up front (so ArenaLo never moves, matching
// the fixed-address assumption the allocator's biased pointers rely
// on) and treats Extend as simply advancing a used-length boundary
// within it — the same "pre-reserved heap, sbrk bumps a logical
// boundary" model original_source/mm.c's memlib.c backend uses.
type SliceProvider struct {
	buf  []byte
	used int
	lo   uintptr
}

// NewSliceProvider reserves maxBytes of backing storage. maxBytes
// bounds total arena growth; Extend fails once it would be exceeded.
func NewSliceProvider(maxBytes int) (*SliceProvider, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("allocmem: SliceProvider capacity must be positive, got %d", maxBytes)
	}
	// dirtmake.Bytes skips zero-initialization: the allocator writes
	// every header, footer, epilogue, bucket head and link word before
	// it reads one, and payload bytes carry no promise of initial
	// contents (ZeroAcquire clears its own), so zeroing here is wasted
	// work — the same tradeoff xbuf/writebuf.go and bufiox/bytesbuf.go make
	// when they reach for dirtmake instead of make.
	buf := dirtmake.Bytes(maxBytes, maxBytes)
	return &SliceProvider{
		buf: buf,
		lo:  uintptr(unsafe.Pointer(&buf[0])),
	}, nil
}

// ArenaLo implements ArenaProvider.
func (p *SliceProvider) ArenaLo() uintptr { return p.lo }

// ArenaHi implements ArenaProvider.
func (p *SliceProvider) ArenaHi() uintptr { return p.lo + uintptr(p.used) }

// Extend implements ArenaProvider.
func (p *SliceProvider) Extend(n int) (uintptr, bool) {
	if n < 0 || n > len(p.buf)-p.used {
		return 0, false
	}
	old := p.ArenaHi()
	p.used += n
	return old, true
}

// Cap returns the provider's reserved capacity.
func (p *SliceProvider) Cap() int { return len(p.buf) }

// Used returns the number of bytes handed out to the allocator so far.
func (p *SliceProvider) Used() int { return p.used }
