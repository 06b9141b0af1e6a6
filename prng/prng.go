// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package prng provides the seeded random sources of the simulation. With a non-zero root seed,
// every run draws the same LBT backoff sequence on every node.
package prng

import (
	"math/rand"
	"sync"
	"time"
)

type RandomSeed int64

var (
	mu                       sync.Mutex
	rootSeed                 int64
	newNodeRandSeedGenerator *rand.Rand
	unitRandGenerator        *rand.Rand
)

func init() {
	Init(0)
}

// Init initializes the prng package, either with a fixed PRNG seed (seed != 0) or a 'random' time-based PRNG
// seed (if seed == 0).
func Init(seed int64) {
	mu.Lock()
	defer mu.Unlock()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rootSeed = seed
	r := rand.New(rand.NewSource(seed))
	newNodeRandSeedGenerator = rand.New(rand.NewSource(seed + r.Int63n(1e10)))
	unitRandGenerator = rand.New(rand.NewSource(seed + r.Int63n(1e10)))
}

// RootSeed returns the seed the package was last initialized with.
func RootSeed() int64 {
	mu.Lock()
	defer mu.Unlock()
	return rootSeed
}

// NewNodeRandomSeed generates unique random-seeds for newly created nodes.
func NewNodeRandomSeed() RandomSeed {
	mu.Lock()
	defer mu.Unlock()
	return RandomSeed(newNodeRandSeedGenerator.Int63())
}

// NewNodeRandom creates the random source of a new node. A zero seed draws a fresh one from the
// root generator.
func NewNodeRandom(seed RandomSeed) *rand.Rand {
	if seed == 0 {
		seed = NewNodeRandomSeed()
	}
	return rand.New(rand.NewSource(int64(seed)))
}

// NewUnitRandom generates a new random unit [0, 1) float, which can be used as a random probability.
func NewUnitRandom() float64 {
	mu.Lock()
	defer mu.Unlock()
	return unitRandGenerator.Float64()
}
