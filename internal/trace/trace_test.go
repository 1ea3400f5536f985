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

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRetainsUpToCapacity(t *testing.T) {
	l := New(3)
	l.Record(OpAcquire, 16, 0x1000)
	l.Record(OpAcquire, 32, 0x1010)
	assert.Equal(t, 2, l.Len())

	var ops []Op
	l.Do(func(e Event) { ops = append(ops, e.Op) })
	assert.Equal(t, []Op{OpAcquire, OpAcquire}, ops)
}

func TestLogWrapsOnOverflow(t *testing.T) {
	l := New(2)
	l.Record(OpAcquire, 1, 0)
	l.Record(OpRelease, 2, 0)
	l.Record(OpResize, 3, 0)

	require.Equal(t, 2, l.Len())
	var sizes []int
	l.Do(func(e Event) { sizes = append(sizes, e.Size) })
	assert.Equal(t, []int{2, 3}, sizes, "oldest entry must be evicted first")
}

func TestLogLastReflectsMostRecent(t *testing.T) {
	l := New(4)
	_, ok := l.Last()
	assert.False(t, ok)

	l.Record(OpAcquire, 8, 0x2000)
	l.Record(OpExtend, 4096, 0x3000)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, OpExtend, last.Op)
	assert.Equal(t, 4096, last.Size)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "acquire", OpAcquire.String())
	assert.Equal(t, "zero-acquire", OpZeroAcquire.String())
}
