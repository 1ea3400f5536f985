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

package ring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

type slot struct {
	value int
}

func newRandomValues(n int) []int {
	vs := make([]int, 0, n)
	for i := 0; i < n; i++ {
		vs = append(vs, rand.Intn(n))
	}
	return vs
}

func newSlots(vs []int) []slot {
	items := make([]slot, 0, len(vs))
	for i := 0; i < len(vs); i++ {
		items = append(items, slot{value: vs[i]})
	}
	return items
}

func TestRingGetNextPrev(t *testing.T) {
	n := 100
	vs := newRandomValues(n)
	r := NewFromSlice(newSlots(vs))

	for i := 0; i < n; i++ {
		it, ok := r.Get(i)
		assert.True(t, ok)
		assert.Equal(t, vs[i], it.Value().value)
		assert.Equal(t, vs[i], it.Pointer().value)
	}

	head, _ := r.Get(0)
	assert.Equal(t, head, r.Head())

	curr := head
	for i := 0; i < n; i++ {
		next, ok := r.Next(curr.Index())
		assert.True(t, ok)
		curr = next
	}
	assert.Equal(t, head, curr, "n steps forward wraps back to head")
	_, ok := r.Next(n + 1)
	assert.False(t, ok)

	for i := 0; i < n; i++ {
		prev, ok := r.Prev(curr.Index())
		assert.True(t, ok)
		curr = prev
	}
	assert.Equal(t, head, curr, "n steps back wraps back to head")
	_, ok = r.Prev(n + 1)
	assert.False(t, ok)
}

func TestRingDoAndMutate(t *testing.T) {
	n := 100
	vs := newRandomValues(n)
	r := NewFromSlice(newSlots(vs))

	var total int
	r.Do(func(v *slot) { total += v.value })
	var want int
	for _, v := range vs {
		want += v
	}
	assert.Equal(t, want, total)

	for i := 0; i < n; i++ {
		it, ok := r.Get(i)
		assert.True(t, ok)
		it.Pointer().value = i
		assert.Equal(t, i, it.Value().value)
	}
}

func TestRingMove(t *testing.T) {
	n := 100
	vs := newRandomValues(n)
	r := NewFromSlice(newSlots(vs))

	got, _ := r.Move(98, 2)
	want, _ := r.Get(0)
	assert.Equal(t, want, got)

	got, _ = r.Move(98, n+1)
	want, _ = r.Get(99)
	assert.Equal(t, want, got)

	got, _ = r.Move(1, -2)
	want, _ = r.Get(99)
	assert.Equal(t, want, got)

	got, _ = r.Move(1, -(2 + n))
	want, _ = r.Get(99)
	assert.Equal(t, want, got)
}

func TestRingLen(t *testing.T) {
	r := NewFromSlice(newSlots(newRandomValues(7)))
	assert.Equal(t, 7, r.Len())
}
