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

// Package trace keeps a bounded, GC-friendly log of recent allocator
// operations, filled when an Allocator is built with
// allocmem.WithTraceLog. Events live inside a
// container/ring.Ring (one backing array, no per-event allocation), and
// the log wraps once full, overwriting the oldest entry in place.
package trace

import "github.com/cloudwego/allocmem/container/ring"

// Op identifies the kind of operation an Event records.
type Op uint8

const (
	OpAcquire Op = iota
	OpRelease
	OpResize
	OpZeroAcquire
	OpExtend
)

func (op Op) String() string {
	switch op {
	case OpAcquire:
		return "acquire"
	case OpRelease:
		return "release"
	case OpResize:
		return "resize"
	case OpZeroAcquire:
		return "zero-acquire"
	case OpExtend:
		return "extend"
	default:
		return "unknown"
	}
}

// Event is one recorded operation. It must not contain pointers: the log
// is meant to survive and describe operations on memory the allocator
// itself owns, so it never references the payload being traced.
type Event struct {
	Op       Op
	Size     int
	Addr     uintptr
	Sequence uint64
}

// Log is a fixed-capacity ring of Events, backed by container/ring. The
// zero Log is not usable; construct one with New. Log is not safe for
// concurrent use, matching the Allocator it instruments.
type Log struct {
	r     *ring.Ring[Event]
	next  int // index the next Record call writes to
	count int // number of valid entries, caps at r.Len()
	seq   uint64
}

// New returns a Log that retains the most recent capacity events.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	return &Log{r: ring.NewFromSlice(make([]Event, capacity))}
}

// Record writes an event into the ring's next slot, overwriting the
// oldest entry once the log is full.
func (l *Log) Record(op Op, size int, addr uintptr) {
	l.seq++
	it, _ := l.r.Get(l.next)
	*it.Pointer() = Event{Op: op, Size: size, Addr: addr, Sequence: l.seq}
	l.next = (l.next + 1) % l.r.Len()
	if l.count < l.r.Len() {
		l.count++
	}
}

// Len returns the number of valid entries currently retained.
func (l *Log) Len() int { return l.count }

// Cap returns the log's fixed capacity.
func (l *Log) Cap() int { return l.r.Len() }

// Do calls f once per retained event, oldest first.
func (l *Log) Do(f func(Event)) {
	if l.count == 0 {
		return
	}
	start := l.next - l.count
	if start < 0 {
		start += l.r.Len()
	}
	for i := 0; i < l.count; i++ {
		it, _ := l.r.Get((start + i) % l.r.Len())
		f(it.Value())
	}
}

// Last returns the most recently recorded event and true, or the zero
// Event and false if nothing has been recorded yet.
func (l *Log) Last() (Event, bool) {
	if l.count == 0 {
		return Event{}, false
	}
	idx := l.next - 1
	if idx < 0 {
		idx += l.r.Len()
	}
	it, _ := l.r.Get(idx)
	return it.Value(), true
}
