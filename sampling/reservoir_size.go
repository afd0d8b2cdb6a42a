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

import (
	"errors"
	"math/bits"
)

const (
	reservoirSizeBinsPerOctave    = 2048
	reservoirSizeInvBinsPerOctave = 1.0 / reservoirSizeBinsPerOctave
	reservoirSizeExponentMask     = 0x1F
	reservoirSizeExponentShift    = 11
	reservoirSizeIndexMask        = 0x07FF
	reservoirSizeMaxEncValue      = 0xF7FF // p=30, i=2047
	reservoirSizeMaxP             = 30
)

// decodeReservoirSize expands a 16-bit encoded reservoir size back into an
// int. Only used when reading the legacy v1 serialization format.
func decodeReservoirSize(encoded uint16) (int, error) {
	value := int(encoded)
	if value > reservoirSizeMaxEncValue {
		return 0, errors.New("invalid encoded reservoir size")
	}

	p := (value >> reservoirSizeExponentShift) & reservoirSizeExponentMask
	i := value & reservoirSizeIndexMask

	base := 1 << uint(p)
	return int(float64(base) * ((float64(i) * reservoirSizeInvBinsPerOctave) + 1.0)), nil
}

// encodeReservoirSize compresses a reservoir size of 1..2^31-2 into a 16-bit
// value using 5 exponent bits over 2048 bins per octave, rounding up so
// decodeReservoirSize(encodeReservoirSize(n)) >= n always holds. Only used
// to produce legacy v1 fixtures; normal operation always writes v2.
func encodeReservoirSize(n int) (uint16, error) {
	if n < 1 {
		return 0, errors.New("reservoir size must be positive")
	}

	p := bits.Len(uint(n)) - 1 // floor(log2(n))
	base := 1 << uint(p)

	i := 0
	if n > base {
		frac := float64(n-base) / float64(base)
		i = int(frac * reservoirSizeBinsPerOctave)
		if float64(base)*(1.0+float64(i)*reservoirSizeInvBinsPerOctave) < float64(n) {
			i++ // ceil: bump to the next bin if truncation undershot n
		}
		if i == reservoirSizeBinsPerOctave {
			i = 0
			p++
		}
	}

	if p > reservoirSizeMaxP {
		return 0, errors.New("reservoir size too large to encode")
	}

	return uint16((p << reservoirSizeExponentShift) | i), nil
}
