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

// Command allocbench replays a randomized acquire/release trace (spec
// §8 scenario 6) through allocmem.Allocator and reports throughput and
// arena utilization. It is the concrete stand-in for spec.md §1's
// "driver/test harness" external collaborator.
//
// With -compare it replays the identical trace through
// github.com/bytedance/gopkg/lang/mcache as a reference point, matching
// the way xbuf/readbuf.go and gridbuf/writebuf.go lean on mcache as a
// pooled-buffer backend.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/cloudwego/allocmem"
)

// op is one step of a replayed trace: acquire a new slot of size bytes,
// or release the slot previously acquired at index releaseIdx.
type op struct {
	isRelease  bool
	size       int
	releaseIdx int
}

// genTrace builds the scenario-6-style trace: acquire n random-sized
// blocks, then release them all in a shuffled order.
func genTrace(n, minSize, maxSize int, seed int64) []op {
	rng := rand.New(rand.NewSource(seed))
	ops := make([]op, 0, 2*n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		size := minSize
		if maxSize > minSize {
			size += rng.Intn(maxSize - minSize + 1)
		}
		ops = append(ops, op{size: size})
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, idx := range order {
		ops = append(ops, op{isRelease: true, releaseIdx: idx})
	}
	return ops
}

type result struct {
	label    string
	elapsed  time.Duration
	acquires int
	releases int
}

func (r result) report() {
	fmt.Printf("%-10s acquires=%-8d releases=%-8d elapsed=%v (%.0f ops/s)\n",
		r.label, r.acquires, r.releases, r.elapsed,
		float64(r.acquires+r.releases)/r.elapsed.Seconds())
}

func runAllocmem(trace []op, a *allocmem.Allocator) result {
	slots := make([]unsafe.Pointer, countAcquires(trace))
	var acquires, releases int

	start := time.Now()
	for _, o := range trace {
		if o.isRelease {
			a.Release(slots[o.releaseIdx])
			releases++
			continue
		}
		slots[acquires] = a.Acquire(o.size)
		acquires++
	}
	return result{label: "allocmem", elapsed: time.Since(start), acquires: acquires, releases: releases}
}

func runMcache(trace []op) result {
	slots := make([][]byte, countAcquires(trace))
	var acquires, releases int

	start := time.Now()
	for _, o := range trace {
		if o.isRelease {
			mcache.Free(slots[o.releaseIdx])
			releases++
			continue
		}
		slots[acquires] = mcache.Malloc(o.size)
		acquires++
	}
	return result{label: "mcache", elapsed: time.Since(start), acquires: acquires, releases: releases}
}

func countAcquires(trace []op) int {
	n := 0
	for _, o := range trace {
		if !o.isRelease {
			n++
		}
	}
	return n
}

func main() {
	var (
		ops     = flag.Int("ops", 100000, "number of blocks to acquire and release per pass")
		minSize = flag.Int("min", 16, "minimum request size in bytes")
		maxSize = flag.Int("max", 512, "maximum request size in bytes")
		seed    = flag.Int64("seed", 1, "PRNG seed, for reproducible traces")
		arena   = flag.Int("arena", 64<<20, "reserved SliceProvider capacity in bytes")
		chunk   = flag.Int("chunk", allocmem.DefaultChunkSize, "arena extension chunk size in bytes")
		compare = flag.Bool("compare", false, "also replay the trace through bytedance/gopkg's mcache")
		fitFlag = flag.String("fit", "best", "fit policy: best or next")
	)
	flag.Parse()

	if *minSize <= 0 || *maxSize < *minSize {
		fmt.Fprintln(os.Stderr, "allocbench: -min must be positive and <= -max")
		os.Exit(2)
	}

	trace := genTrace(*ops, *minSize, *maxSize, *seed)

	policy := allocmem.FitPolicyBestFit
	if *fitFlag == "next" {
		policy = allocmem.FitPolicyNextFit
	}

	provider, err := allocmem.NewSliceProvider(*arena)
	if err != nil {
		fmt.Fprintf(os.Stderr, "allocbench: %v\n", err)
		os.Exit(1)
	}
	a, err := allocmem.New(provider, allocmem.WithChunkSize(*chunk), allocmem.WithFitPolicy(policy))
	if err != nil {
		fmt.Fprintf(os.Stderr, "allocbench: %v\n", err)
		os.Exit(1)
	}

	runAllocmem(trace, a).report()
	if errs := a.Check(); len(errs) != 0 {
		fmt.Fprintf(os.Stderr, "allocbench: %d integrity violations after replay\n", len(errs))
		os.Exit(1)
	}
	fmt.Printf("allocmem: final arena usage = %d bytes, free = %d bytes\n", provider.Used(), a.Available())

	if *compare {
		runMcache(trace).report()
	}
}
