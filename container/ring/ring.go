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

// Package ring is a GC-friendly fixed-size ring container: every Item
// lives in one backing array allocated up front, so walking or wrapping
// the ring never allocates and never makes the garbage collector scan a
// chain of separately-heap-allocated nodes the way container/ring's
// circular linked list does. It backs internal/trace's bounded event
// log, which needs exactly this: a fixed number of slots, overwritten
// oldest-first, none of them ever individually allocated or freed.
//
// Type V must not contain pointers, for the same reason the log it
// backs must not: the ring is meant to be cheap to hold onto for the
// life of an Allocator without the GC having to trace through it.
package ring

// Ring holds a fixed number of Items in one backing array. Items can be
// read and, via Item.Pointer, mutated in place; the ring itself never
// grows or shrinks after NewFromSlice.
type Ring[V any] struct {
	items []Item[V]
}

// Item is one element stored in a Ring.
type Item[V any] struct {
	value V
	idx   int
}

// NewFromSlice builds a Ring holding a copy of each value in vv, indexed
// in the order given.
func NewFromSlice[V any](vv []V) *Ring[V] {
	r := &Ring[V]{}
	r.items = make([]Item[V], len(vv))
	for i := 0; i < len(vv); i++ {
		r.items[i].value = vv[i]
		r.items[i].idx = i
	}
	return r
}

// Head returns the first item, or nil if the ring is empty.
func (r *Ring[V]) Head() *Item[V] {
	if len(r.items) == 0 {
		return nil
	}
	return &r.items[0]
}

// Get returns the ith item.
func (r *Ring[V]) Get(i int) (*Item[V], bool) {
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	return &r.items[i], true
}

// Next returns the item following the ith item, wrapping to index 0
// when i is the last index.
func (r *Ring[V]) Next(i int) (*Item[V], bool) {
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	if i == len(r.items)-1 {
		return &r.items[0], true
	}
	return &r.items[i+1], true
}

// Prev returns the item preceding the ith item, wrapping to the last
// index when i == 0.
func (r *Ring[V]) Prev(i int) (*Item[V], bool) {
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	if i == 0 {
		return &r.items[len(r.items)-1], true
	}
	return &r.items[i-1], true
}

// Move returns the item n steps from the ith item, wrapping in either
// direction.
func (r *Ring[V]) Move(i, n int) (*Item[V], bool) {
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	var idx int
	if n >= 0 {
		idx = (i + n) % len(r.items)
	} else {
		idx = (len(r.items) + (i+n)%len(r.items)) % len(r.items)
	}
	return &r.items[idx], true
}

// Do calls f once per item, in index order.
func (r *Ring[V]) Do(f func(v *V)) {
	for i := 0; i < len(r.items); i++ {
		f(&r.items[i].value)
	}
}

// Len returns the ring's fixed capacity.
func (r *Ring[V]) Len() int {
	return len(r.items)
}

// Index returns the item's position in the ring.
func (it *Item[V]) Index() int {
	return it.idx
}

// Value returns a copy of the item's value.
func (it *Item[V]) Value() V {
	return it.value
}

// Pointer returns a pointer to the item's value for in-place mutation.
// The pointer is only valid for the lifetime of the Ring; it must not
// be retained after the Ring itself is discarded.
func (it *Item[V]) Pointer() *V {
	return &it.value
}
