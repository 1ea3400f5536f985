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

import "errors"

// Construction-time errors returned by New.
var (
	ErrBaseNotAligned = errors.New("allocmem: provider's arena base is not 8-byte aligned")
	ErrInitFailed     = errors.New("allocmem: arena provider refused the initial extend")
	ErrBadChunkSize   = errors.New("allocmem: chunk size must be a multiple of 8 and at least 16")
)

// Client-misuse conditions panic rather than returning an error, mirroring
// unsafex/malloc's BuddyAllocator.Free: Acquire/Release/Resize/ZeroAcquire
// never panic on legitimate input, but a corrupted or foreign pointer is
// undefined behavior per the allocator's contract, and these are the
// messages used when it is cheap to detect.
const (
	panicDoubleFree   = "allocmem: double free or invalid pointer"
	panicOutOfArena   = "allocmem: pointer is not within the managed arena"
	panicMisaligned   = "allocmem: pointer is not aligned to a block boundary"
	panicNotAllocated = "allocmem: pointer does not reference an allocated block"
)
