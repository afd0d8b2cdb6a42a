/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sampling

import "math/rand"

// RandomSource is the single source of randomness for a sketch. Every
// stochastic decision in the reservoir, VarOpt, and EBPPS update paths
// draws from exactly one RandomSource, obtained at construction time and
// never replaced, so that two sketches seeded identically and fed the same
// item sequence reach bit-identical state.
type RandomSource interface {
	// Float64 returns a pseudo-random number in [0,1).
	Float64() float64
	// Intn returns a pseudo-random number in [0,n).
	Intn(n int) int
	// Gaussian returns a pseudo-random sample from the standard normal
	// distribution. Only used by tests.
	Gaussian() float64
}

// randRandSource adapts *rand.Rand to RandomSource.
type randRandSource struct {
	r *rand.Rand
}

// NewRandomSource returns a RandomSource seeded deterministically. Two
// RandomSources built from the same seed produce the same draw sequence.
func NewRandomSource(seed int64) RandomSource {
	return &randRandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *randRandSource) Float64() float64  { return s.r.Float64() }
func (s *randRandSource) Intn(n int) int    { return s.r.Intn(n) }
func (s *randRandSource) Gaussian() float64 { return s.r.NormFloat64() }

// globalRandomSource adapts the math/rand package-level functions, which
// are auto-seeded and safe for concurrent use. It backs every sketch that
// isn't given an explicit RandomSource.
type globalRandomSource struct{}

func (globalRandomSource) Float64() float64  { return rand.Float64() }
func (globalRandomSource) Intn(n int) int    { return rand.Intn(n) }
func (globalRandomSource) Gaussian() float64 { return rand.NormFloat64() }

// defaultRandomSource is shared by every sketch constructed without an
// explicit WithRandomSource option.
var defaultRandomSource RandomSource = globalRandomSource{}

// nonZeroFloat64 draws from src until it gets a strictly positive value,
// the "uniform()" helper the VarOpt paper's reference implementation uses
// to avoid a zero draw landing exactly on a region boundary.
func nonZeroFloat64(src RandomSource) float64 {
	for {
		r := src.Float64()
		if r > 0 {
			return r
		}
	}
}
