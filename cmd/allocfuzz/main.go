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

// Command allocfuzz is a thin wrapper around `go test -fuzz` for the
// allocator's coalescing/placement invariants (package allocmem's
// FuzzAcquireReleaseSequence, in fuzz_test.go). It exists so the fuzz
// target can be launched as `go run ./cmd/allocfuzz` in environments
// that script fleet-wide fuzzing without hand-building a `go test`
// invocation per module, matching SPEC_FULL.md §3's testing-tooling
// expansion: the allocator's own tests stay in `_test.go` files where
// `go test -fuzz` already finds them, and this command only documents
// and reruns the equivalent command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
)

func main() {
	var (
		fuzzTime = flag.String("fuzztime", "30s", "passed through to go test -fuzztime")
		run      = flag.String("run", "FuzzAcquireReleaseSequence", "fuzz target to run, passed to go test -fuzz")
	)
	flag.Parse()

	cmd := exec.Command("go", "test", "-run", "^$", "-fuzz", "^"+*run+"$", "-fuzztime", *fuzzTime, ".")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Fprintf(os.Stderr, "allocfuzz: %s\n", cmd.String())
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "allocfuzz: %v\n", err)
		os.Exit(1)
	}
}
