/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"math/rand/v2"
)

// RandomSource picks one of n choices. Implementations must return a value in
// [0, n) for n > 0.
type RandomSource interface {
	Intn(n int) int
}

// RandomFunc adapts a function to RandomSource.
type RandomFunc func(n int) int

func (f RandomFunc) Intn(n int) int { return f(n) }

// pcgSource is a seeded RandomSource. It is not safe for concurrent use; the
// batch driver gives every submission its own renderer.
type pcgSource struct{ r *rand.Rand }

// NewRandSource returns a deterministic RandomSource for seed.
func NewRandSource(seed uint64) RandomSource {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Intn(n int) int { return s.r.IntN(n) }

// globalSource draws from the runtime-seeded math/rand/v2 generator and is
// safe for concurrent use.
type globalSource struct{}

// DefaultRandSource returns a non-deterministic, concurrency-safe RandomSource.
func DefaultRandSource() RandomSource { return globalSource{} }

func (globalSource) Intn(n int) int { return rand.IntN(n) }

// pick returns a uniformly chosen catalog entry. An empty catalog or an
// out-of-range pick is a configuration bug and panics.
func pick(r RandomSource, catalog []string) string {
	if len(catalog) == 0 {
		panic("script: empty catalog")
	}
	i := r.Intn(len(catalog))
	if i < 0 || i >= len(catalog) {
		panic(fmt.Sprintf("script: random source returned %d for %d choices", i, len(catalog)))
	}
	return catalog[i]
}
