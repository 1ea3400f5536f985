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
	"io"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/cloudwego/allocmem/internal/trace"
)

// DefaultChunkSize is how much the arena grows by when Acquire can't
// satisfy a request from free blocks alone (spec §4.1).
const DefaultChunkSize = 4096

// DefaultMaxArenaBytes is the reserved capacity given to the
// package-level Default allocator's backing SliceProvider.
const DefaultMaxArenaBytes = 1 << 30 // 1GB

// Allocator manages one arena. It is not safe for concurrent use: all
// mutation happens within Acquire, Release, Resize, and ZeroAcquire, and
// spec §5 assumes a single caller (see package doc).
type Allocator struct {
	provider  ArenaProvider
	basePtr   uintptr
	chunkSize int
	fitPolicy FitPolicy
	rover     uintptr
	diag      io.Writer
	trace     *trace.Log
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(a *Allocator) { a.chunkSize = n }
}

// WithFitPolicy overrides the default best-fit-within-bucket search.
func WithFitPolicy(p FitPolicy) Option {
	return func(a *Allocator) { a.fitPolicy = p }
}

// WithDiagnosticsWriter overrides where Check/CheckLine print their
// per-violation diagnostic lines. Defaults to os.Stderr.
func WithDiagnosticsWriter(w io.Writer) Option {
	return func(a *Allocator) { a.diag = w }
}

// WithTraceLog enables operation tracing: every Acquire, Release,
// ZeroAcquire, and arena extension is recorded into a bounded ring of
// the given capacity, retrievable via Allocator.Trace. Resize records
// itself as OpResize for its three real-resize branches (shrink,
// grow-in-place, grow-by-relocation); Resize(nil, s) and Resize(p, 0)
// instead record as the OpAcquire/OpRelease call they delegate to
// (spec §4.8). A Resize that fails (returns nil because relocation
// could not acquire a new block) is not recorded. Disabled by
// default — most callers pay no cost for it.
func WithTraceLog(capacity int) Option {
	return func(a *Allocator) { a.trace = trace.New(capacity) }
}

// New creates an Allocator backed by p. It requests enough arena bytes
// for the bucket-head array, the prologue, and the epilogue, then
// extends once more by chunkSize to create the first free block (spec
// §4.1). New fails if p cannot satisfy either extend.
func New(p ArenaProvider, opts ...Option) (*Allocator, error) {
	a := &Allocator{
		provider:  p,
		chunkSize: DefaultChunkSize,
		fitPolicy: FitPolicyBestFit,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.diag == nil {
		a.diag = os.Stderr
	}
	if a.chunkSize <= 0 || a.chunkSize%8 != 0 || a.chunkSize < minBlockSize {
		return nil, ErrBadChunkSize
	}

	base := p.ArenaLo()
	if base%8 != 0 {
		return nil, ErrBaseNotAligned
	}
	a.basePtr = base

	headerRegion := bucketIndexSize + prologueSize + headerSize // heads + prologue + epilogue
	old, ok := p.Extend(headerRegion)
	if !ok || old != base {
		return nil, ErrInitFailed
	}

	for i := 0; i < numBuckets; i++ {
		store32(a.bucketHeadAddr(i), 0)
	}

	prologueHdr := a.basePtr + uintptr(bucketIndexSize)
	writeTags(prologueHdr, prologueSize, true)
	writeEpilogue(prologueHdr + uintptr(prologueSize))

	if _, ok := a.extend(a.chunkSize); !ok {
		return nil, ErrInitFailed
	}
	return a, nil
}

var (
	defaultOnce sync.Once
	defaultA    *Allocator
)

// Default returns the package-level allocator, lazily backed by a
// SliceProvider reserving DefaultMaxArenaBytes. This is the
// process-global default instance spec §9's "Global mutable state"
// note describes keeping available for compatibility even though a
// clean design makes the allocator an explicit value everywhere else.
// The sync.Once here guards one-time construction only, not ongoing
// concurrent use.
func Default() *Allocator {
	defaultOnce.Do(func() {
		p, err := NewSliceProvider(DefaultMaxArenaBytes)
		if err != nil {
			panic(err)
		}
		a, err := New(p)
		if err != nil {
			panic(err)
		}
		defaultA = a
	})
	return defaultA
}

// firstBlock returns the header address of the first real (non-sentinel)
// block, immediately following the prologue.
func (a *Allocator) firstBlock() uintptr {
	return a.basePtr + uintptr(bucketIndexSize) + uintptr(prologueSize)
}

// prologueAddr returns the prologue's header address.
func (a *Allocator) prologueAddr() uintptr {
	return a.basePtr + uintptr(bucketIndexSize)
}

// epilogueAddr returns the current epilogue's header address.
func (a *Allocator) epilogueAddr() uintptr {
	return a.provider.ArenaHi() - headerSize
}

// normalize converts a client byte count into a total block size
// (payload + header + footer), per spec §4.2.
func normalize(size int) int {
	if size > math.MaxInt-overhead-7 {
		// size+overhead would overflow; return a size no arena can hold.
		return math.MaxInt &^ 7
	}
	asize := roundUp8(size + overhead)
	if asize < minBlockSize {
		asize = minBlockSize
	}
	return asize
}

// extend grows the arena by n bytes (rounded up to a multiple of 8,
// floored at minBlockSize) and folds the result into a single free
// block via coalesce, per spec §4.10. Returns the header of the
// resulting block, or (0, false) if the provider refuses or the arena
// would reach past 2^32 bytes above basePtr (the reach of a 4-byte
// bias and of a block-size tag).
func (a *Allocator) extend(n int) (uintptr, bool) {
	n = roundUp8(n)
	if n < minBlockSize {
		n = minBlockSize
	}
	if uint64(a.provider.ArenaHi()-a.basePtr)+uint64(n) > 1<<32 {
		return 0, false
	}

	old, ok := a.provider.Extend(n)
	if !ok {
		return 0, false
	}

	// old is the pre-extend ArenaHi, which coincided with the old
	// epilogue's header address plus headerSize: the new block's
	// header reuses that reclaimed slot, and its total size (n)
	// reaches exactly to where the new epilogue belongs.
	hdr := old - headerSize
	writeTags(hdr, n, false)
	writeEpilogue(hdr + uintptr(n))

	if a.trace != nil {
		a.trace.Record(trace.OpExtend, n, hdr)
	}
	return a.coalesce(hdr), true
}

// Acquire returns a pointer to a payload of at least size usable bytes,
// or nil iff size <= 0 or the arena cannot be grown to satisfy the
// request (spec §4.6).
func (a *Allocator) Acquire(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	asize := normalize(size)

	if hdr := a.findFit(asize); hdr != 0 {
		hdr = a.place(hdr, asize)
		p := payloadAddr(hdr)
		if a.trace != nil {
			a.trace.Record(trace.OpAcquire, size, p)
		}
		return unsafe.Pointer(p)
	}

	extendSize := asize
	if a.chunkSize > extendSize {
		extendSize = a.chunkSize
	}
	hdr, ok := a.extend(extendSize)
	if !ok {
		return nil
	}
	hdr = a.place(hdr, asize)
	p := payloadAddr(hdr)
	if a.trace != nil {
		a.trace.Record(trace.OpAcquire, size, p)
	}
	return unsafe.Pointer(p)
}

// Trace returns the allocator's operation log, or nil if WithTraceLog
// was never supplied to New.
func (a *Allocator) Trace() *trace.Log { return a.trace }

// Release returns an allocated payload to the allocator (spec §4.7). A
// nil p is a no-op.
func (a *Allocator) Release(p unsafe.Pointer) {
	if p == nil {
		return
	}
	hdr := headerFromPayload(uintptr(p))
	a.validateAllocated(hdr)

	size := blockSize(hdr)
	writeTags(hdr, size, false)
	setPredBias(hdr, 0)
	setSuccBias(hdr, 0)
	if a.trace != nil {
		a.trace.Record(trace.OpRelease, size-overhead, uintptr(p))
	}
	a.coalesce(hdr)
}

// Resize implements spec §4.8's six cases.
func (a *Allocator) Resize(p unsafe.Pointer, size int) unsafe.Pointer {
	if p == nil {
		return a.Acquire(size)
	}
	if size == 0 {
		a.Release(p)
		return nil
	}

	hdr := headerFromPayload(uintptr(p))
	a.validateAllocated(hdr)
	asize := normalize(size)
	oldSize := blockSize(hdr)

	switch {
	case asize+minBlockSize <= oldSize: // shrink with split
		writeTags(hdr, asize, true)
		tail := nextBlock(hdr)
		writeTags(tail, oldSize-asize, false)
		a.coalesce(tail)
		np := payloadAddr(hdr)
		if a.trace != nil {
			a.trace.Record(trace.OpResize, size, np)
		}
		return unsafe.Pointer(np)

	case asize <= oldSize: // shrink without split
		if a.trace != nil {
			a.trace.Record(trace.OpResize, size, uintptr(p))
		}
		return p

	default: // grow
		next := nextBlock(hdr)
		if !isAllocated(next) && oldSize+blockSize(next) >= asize {
			nsize := blockSize(next)
			a.freelistRemove(bucketForSize(nsize), next)
			combined := oldSize + nsize

			if combined-asize >= minBlockSize {
				writeTags(hdr, asize, true)
				tail := nextBlock(hdr)
				writeTags(tail, combined-asize, false)
				a.freelistInsert(bucketForSize(combined-asize), tail)
			} else {
				writeTags(hdr, combined, true)
			}
			if a.trace != nil {
				a.trace.Record(trace.OpResize, size, uintptr(p))
			}
			return unsafe.Pointer(payloadAddr(hdr))
		}

		newPtr := a.Acquire(size)
		if newPtr == nil {
			return nil
		}
		copyLen := oldSize - overhead
		if size < copyLen {
			copyLen = size
		}
		copyBytes(newPtr, p, copyLen)
		a.Release(p)
		if a.trace != nil {
			a.trace.Record(trace.OpResize, size, uintptr(newPtr))
		}
		return newPtr
	}
}

// ZeroAcquire returns a zero-initialized payload of n*size bytes, or nil
// if either argument is non-positive, the multiplication overflows, or
// the arena is exhausted (spec §4.9).
func (a *Allocator) ZeroAcquire(n, size int) unsafe.Pointer {
	if n <= 0 || size <= 0 {
		return nil
	}
	total, overflow := mulOverflow(n, size)
	if overflow {
		return nil
	}
	p := a.Acquire(total)
	if p == nil {
		return nil
	}
	zeroBytes(p, total)
	if a.trace != nil {
		a.trace.Record(trace.OpZeroAcquire, total, uintptr(p))
	}
	return p
}

// Available returns the total free bytes currently held across all
// buckets (payload-equivalent, overhead excluded), mirroring
// unsafex/malloc's BuddyAllocator.Available.
func (a *Allocator) Available() int {
	total := 0
	for bucket := 0; bucket < numBuckets; bucket++ {
		for cur := a.bucketHead(bucket); cur != 0; cur = a.ptrFromBias(succBias(cur)) {
			total += blockSize(cur) - overhead
		}
	}
	return total
}

func (a *Allocator) validateAllocated(hdr uintptr) {
	lo := a.firstBlock()
	hi := a.epilogueAddr()
	if hdr < lo || hdr >= hi {
		panic(panicOutOfArena)
	}
	if (hdr-lo)%8 != 0 {
		panic(panicMisaligned)
	}
	if !isAllocated(hdr) {
		panic(panicDoubleFree)
	}
}

func copyBytes(dst, src unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

func zeroBytes(p unsafe.Pointer, n int) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}

func mulOverflow(n, m int) (int, bool) {
	p := n * m
	if p/n != m {
		return 0, true
	}
	return p, false
}

// AcquireBytes is a convenience wrapper returning the payload as a
// []byte of exactly size length, mirroring unsafex/malloc's
// slice-based Alloc/Free surface alongside the raw-pointer API.
func (a *Allocator) AcquireBytes(size int) []byte {
	p := a.Acquire(size)
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), size)
}

// ReleaseBytes releases a slice returned by AcquireBytes/ResizeBytes.
func (a *Allocator) ReleaseBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	a.Release(unsafe.Pointer(&b[0]))
}

// ResizeBytes is the []byte-returning counterpart to Resize.
func (a *Allocator) ResizeBytes(b []byte, size int) []byte {
	var p unsafe.Pointer
	if len(b) != 0 {
		p = unsafe.Pointer(&b[0])
	}
	np := a.Resize(p, size)
	if np == nil {
		return nil
	}
	return unsafe.Slice((*byte)(np), size)
}
