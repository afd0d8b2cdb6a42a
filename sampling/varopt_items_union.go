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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/apache/datasketches-go/internal"
)

// VarOptItemsUnion merges multiple VarOptItemsSketch instances into a single
// variance-optimal sample using a marked gadget. Every item retained by an
// input sketch re-enters the union through the gadget's own heavy/light
// update rule: H region items keep their exact weight and enter unmarked, R
// region items enter at tau (totalWeightR/r) marked, since that weight is
// only the source sketch's own aggregate estimate rather than the item's
// true weight. Result() resolves those marks by finding tau', the threshold
// that lets marked items whose real weight exceeds it stay in H with
// certainty while the rest are pooled into R at weight tau' alongside
// whatever was already there; see VarOptItemsSketch.resolve.
type VarOptItemsUnion[T any] struct {
	maxK   int
	gadget *VarOptItemsSketch[T]
	n      int64
	random RandomSource
}

// VarOptUnionOptionFunc configures a VarOptItemsUnion.
type VarOptUnionOptionFunc func(*varOptUnionOptions)

type varOptUnionOptions struct {
	random RandomSource
}

// WithVarOptUnionRandomSource overrides the source of randomness used by the
// union's internal gadget.
func WithVarOptUnionRandomSource(random RandomSource) VarOptUnionOptionFunc {
	return func(o *varOptUnionOptions) {
		o.random = random
	}
}

// NewVarOptItemsUnion creates a union that will produce a result sketch of
// at most maxK samples.
func NewVarOptItemsUnion[T any](maxK int, opts ...VarOptUnionOptionFunc) (*VarOptItemsUnion[T], error) {
	if maxK < varOptMinK {
		return nil, fmt.Errorf("%w: maxK must be at least %d", ErrInvalidArgument, varOptMinK)
	}

	options := &varOptUnionOptions{random: defaultRandomSource}
	for _, opt := range opts {
		opt(options)
	}

	return &VarOptItemsUnion[T]{
		maxK:   maxK,
		random: options.random,
	}, nil
}

func (u *VarOptItemsUnion[T]) ensureGadget() error {
	if u.gadget != nil {
		return nil
	}
	gadget, err := NewVarOptItemsSketchAsGadget[T](u.maxK, WithVarOptRandomSource(u.random))
	if err != nil {
		return err
	}
	u.gadget = gadget
	return nil
}

// Update adds a single weighted item to the union.
func (u *VarOptItemsUnion[T]) Update(item T, weight float64) error {
	if err := u.ensureGadget(); err != nil {
		return err
	}
	if err := u.gadget.Update(item, weight); err != nil {
		return err
	}
	u.n++
	return nil
}

// UpdateSketch merges a VarOptItemsSketch's retained sample into the union.
func (u *VarOptItemsUnion[T]) UpdateSketch(sketch *VarOptItemsSketch[T]) error {
	if sketch == nil || sketch.IsEmpty() {
		return nil
	}
	if err := u.ensureGadget(); err != nil {
		return err
	}

	for i := 0; i < sketch.h; i++ {
		if err := u.gadget.updateMarked(sketch.data[i], sketch.weights[i], false); err != nil {
			return err
		}
	}
	if sketch.r > 0 {
		tau := sketch.totalWeightR / float64(sketch.r)
		rStart := sketch.h + sketch.m
		for i := 0; i < sketch.r; i++ {
			if err := u.gadget.updateMarked(sketch.data[rStart+i], tau, true); err != nil {
				return err
			}
		}
	}

	u.n += sketch.n
	return nil
}

// Result returns a copy of the union's current best estimate. The copy's
// marked H items are resolved against tau' (see VarOptItemsSketch.resolve)
// before the marks are stripped, so the returned sketch serializes and
// behaves exactly like one built directly with NewVarOptItemsSketch.
func (u *VarOptItemsUnion[T]) Result() (*VarOptItemsSketch[T], error) {
	if u.gadget == nil {
		return NewVarOptItemsSketch[T](u.maxK, WithVarOptRandomSource(u.random))
	}
	result := u.gadget.Copy()
	result.resolve()
	result.StripMarks()
	return result, nil
}

// MaxK returns the maximum output sample size.
func (u *VarOptItemsUnion[T]) MaxK() int { return u.maxK }

// Reset clears the union back to its initial empty state.
func (u *VarOptItemsUnion[T]) Reset() {
	u.gadget = nil
	u.n = 0
}

// String returns a human-readable summary of the union.
func (u *VarOptItemsUnion[T]) String() string {
	var sb strings.Builder
	sb.WriteString("### VarOptItemsUnion SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("   Max k: %d\n", u.maxK))
	if u.gadget == nil {
		sb.WriteString("   Gadget is nil\n")
	} else {
		sb.WriteString(fmt.Sprintf("   Gadget N: %d\n", u.gadget.N()))
		sb.WriteString(fmt.Sprintf("   Gadget H: %d\n", u.gadget.H()))
		sb.WriteString(fmt.Sprintf("   Gadget R: %d\n", u.gadget.R()))
	}
	sb.WriteString("### END UNION SUMMARY\n")
	return sb.String()
}

const (
	varOptUnionPreambleLongs = 1
	varOptUnionSerVer        = 2
	varOptUnionFlagEmpty     = 0x04
)

// ToSlice serializes the union to a byte slice: a short preamble carrying
// maxK followed by the embedded gadget's own serialized image.
func (u *VarOptItemsUnion[T]) ToSlice(serde ItemsSerDe[T]) ([]byte, error) {
	if u.gadget == nil || u.gadget.IsEmpty() {
		buf := make([]byte, 8)
		buf[0] = varOptUnionPreambleLongs
		buf[1] = varOptUnionSerVer
		buf[2] = byte(internal.FamilyEnum.VarOptUnion.Id)
		buf[3] = varOptUnionFlagEmpty
		binary.LittleEndian.PutUint32(buf[4:], uint32(u.maxK))
		return buf, nil
	}

	gadgetBytes, err := encodeVarOptItemsSketch(u.gadget, serde)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 8+len(gadgetBytes))
	buf[0] = varOptUnionPreambleLongs
	buf[1] = varOptUnionSerVer
	buf[2] = byte(internal.FamilyEnum.VarOptUnion.Id)
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:], uint32(u.maxK))
	copy(buf[8:], gadgetBytes)

	return buf, nil
}

// NewVarOptItemsUnionFromSlice deserializes a union from a byte slice.
func NewVarOptItemsUnionFromSlice[T any](data []byte, serde ItemsSerDe[T]) (*VarOptItemsUnion[T], error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: data too short", ErrCorruptImage)
	}

	preLongs := int(data[0] & 0x3F)
	ver := data[1]
	family := data[2]
	flags := data[3]
	maxK := int(binary.LittleEndian.Uint32(data[4:]))

	if preLongs != varOptUnionPreambleLongs {
		return nil, fmt.Errorf("%w: invalid preamble longs: expected %d, got %d", ErrCorruptImage, varOptUnionPreambleLongs, preLongs)
	}
	if ver != varOptUnionSerVer {
		return nil, fmt.Errorf("%w: unsupported serialization version: %d", ErrCorruptImage, ver)
	}
	if family != byte(internal.FamilyEnum.VarOptUnion.Id) {
		return nil, fmt.Errorf("%w: wrong sketch family", ErrCorruptImage)
	}

	union, err := NewVarOptItemsUnion[T](maxK)
	if err != nil {
		return nil, err
	}

	if (flags & varOptUnionFlagEmpty) == 0 {
		if len(data) <= 8 {
			return nil, fmt.Errorf("%w: data too short for non-empty union", ErrCorruptImage)
		}
		gadget, err := decodeVarOptItemsSketch[T](data[8:], serde)
		if err != nil {
			return nil, err
		}
		union.gadget = gadget
		union.n = gadget.N()
	}

	return union, nil
}
