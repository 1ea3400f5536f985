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

// Package allocmem implements a segregated free-list allocator over a
// contiguous, monotonically-growable byte arena.
//
// The allocator carries its own bookkeeping in-band: every block (free or
// allocated) is bracketed by a 4-byte header and a matching 4-byte footer,
// and free blocks double their first 8 payload bytes as intrusive
// doubly-linked list pointers. Free blocks are segregated into 11 buckets
// by size class; within a bucket the list stays sorted by ascending size
// so the fit finder only ever needs a short prefix scan.
//
// allocmem is not safe for concurrent use. Like the allocator it
// generalizes from, it assumes a single caller and performs no locking.
package allocmem
