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
	"io"
	"math"

	"github.com/apache/datasketches-go/internal"
)

// EbppsItemsSketch implements Exact Bounded Probability-Proportional-to-Size
// sampling: a bounded-size weighted sample whose expected inclusion
// probability for any offered item is proportional to its weight, with the
// sample size never exceeding k.
//
// The sample is kept as a fractional count c: floor(c) items are held with
// certainty ("full" items) and, when c is not an integer, one additional
// "partial" item is held whose presence probability is c - floor(c). Every
// update recomputes a scaling factor rho bounding per-item inclusion
// probability (rho*maxWeight <= 1, rho*cumulativeWeight <= k), thins the
// existing sample down to the new rho, and admits the incoming item as a
// candidate for the single partial slot or promotion into the full set.
type EbppsItemsSketch[T any] struct {
	k                int
	n                int64
	cumulativeWeight float64
	maxWeight        float64
	rho              float64
	c                float64

	items       []T
	itemWeights []float64

	partialItem   *T
	partialWeight float64

	random RandomSource
}

// EbppsOptionFunc configures an EbppsItemsSketch.
type EbppsOptionFunc func(*ebppsConfig)

type ebppsConfig struct {
	random RandomSource
}

// WithEbppsRandomSource overrides the source of randomness used for
// thinning and candidate admission decisions.
func WithEbppsRandomSource(random RandomSource) EbppsOptionFunc {
	return func(c *ebppsConfig) {
		c.random = random
	}
}

// NewEbppsItemsSketch creates a sketch targeting a sample of at most k items.
func NewEbppsItemsSketch[T any](k int, opts ...EbppsOptionFunc) (*EbppsItemsSketch[T], error) {
	if k < 1 || k > varOptMaxK {
		return nil, fmt.Errorf("%w: k must be in [1, %d]", ErrInvalidArgument, varOptMaxK)
	}

	cfg := &ebppsConfig{random: defaultRandomSource}
	for _, opt := range opts {
		opt(cfg)
	}

	return &EbppsItemsSketch[T]{
		k:      k,
		random: cfg.random,
	}, nil
}

// K returns the configured maximum sample size.
func (s *EbppsItemsSketch[T]) K() int { return s.k }

// N returns the total number of items offered.
func (s *EbppsItemsSketch[T]) N() int64 { return s.n }

// C returns the current fractional sample size.
func (s *EbppsItemsSketch[T]) C() float64 { return s.c }

// Rho returns the current scaling factor.
func (s *EbppsItemsSketch[T]) Rho() float64 { return s.rho }

// IsEmpty returns true if the sketch has not processed any items.
func (s *EbppsItemsSketch[T]) IsEmpty() bool { return s.n == 0 }

// Reset clears the sketch to its initial empty state while preserving k.
func (s *EbppsItemsSketch[T]) Reset() {
	s.n = 0
	s.cumulativeWeight = 0
	s.maxWeight = 0
	s.rho = 0
	s.c = 0
	s.items = s.items[:0]
	s.itemWeights = s.itemWeights[:0]
	s.partialItem = nil
	s.partialWeight = 0
}

// Copy returns a deep copy of the sketch.
func (s *EbppsItemsSketch[T]) Copy() *EbppsItemsSketch[T] {
	items := make([]T, len(s.items))
	copy(items, s.items)
	weights := make([]float64, len(s.itemWeights))
	copy(weights, s.itemWeights)

	var partial *T
	if s.partialItem != nil {
		v := *s.partialItem
		partial = &v
	}

	return &EbppsItemsSketch[T]{
		k:                s.k,
		n:                s.n,
		cumulativeWeight: s.cumulativeWeight,
		maxWeight:        s.maxWeight,
		rho:              s.rho,
		c:                s.c,
		items:            items,
		itemWeights:      weights,
		partialItem:      partial,
		partialWeight:    s.partialWeight,
		random:           s.random,
	}
}

// Update offers a weighted item to the sketch. Weight must be strictly
// positive and finite. A nil item is a no-op, so streams with gaps can be
// fed through uniformly.
func (s *EbppsItemsSketch[T]) Update(item T, weight float64) error {
	if any(item) == nil {
		return nil
	}
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: weight must be positive and finite", ErrInvalidArgument)
	}

	s.n++
	s.cumulativeWeight += weight
	if weight > s.maxWeight {
		s.maxWeight = weight
	}

	newRho := 1.0 / s.maxWeight
	if alt := float64(s.k) / s.cumulativeWeight; alt < newRho {
		newRho = alt
	}

	if s.rho > 0 {
		s.reweightTo(newRho)
	}
	s.rho = newRho
	s.c = s.rho * s.cumulativeWeight
	if s.c > float64(s.k) {
		s.c = float64(s.k)
	}

	return s.admitCandidate(item, weight)
}

// reweightTo thins the current sample so each retained item's presence
// probability reflects targetRho instead of s.rho, the step that keeps an
// already-sampled item's marginal inclusion probability in line as rho
// tightens with more data.
func (s *EbppsItemsSketch[T]) reweightTo(targetRho float64) {
	if targetRho >= s.rho {
		return
	}
	ratio := targetRho / s.rho

	newItems := make([]T, 0, len(s.items))
	newWeights := make([]float64, 0, len(s.itemWeights))
	for i, it := range s.items {
		keepProb := ratio * s.itemWeights[i]
		if keepProb > 1 {
			keepProb = 1
		}
		if s.random.Float64() < keepProb {
			newItems = append(newItems, it)
			newWeights = append(newWeights, s.itemWeights[i])
		}
	}
	s.items = newItems
	s.itemWeights = newWeights

	if s.partialItem != nil {
		keepProb := ratio * s.partialWeight
		if keepProb > 1 {
			keepProb = 1
		}
		if s.random.Float64() >= keepProb {
			s.partialItem = nil
			s.partialWeight = 0
		}
	}
}

// admitCandidate reconciles the newly offered item (and any surviving
// partial item from before this update) against the single partial slot,
// promoting one of them to a full item if the fractional count c has grown
// past its current floor.
func (s *EbppsItemsSketch[T]) admitCandidate(item T, weight float64) error {
	target := int(math.Floor(s.c))
	if target > s.k {
		target = s.k
	}

	// Thinning is stochastic; trim any accidental overshoot before admitting.
	for len(s.items) > target {
		idx := s.random.Intn(len(s.items))
		last := len(s.items) - 1
		s.items[idx] = s.items[last]
		s.itemWeights[idx] = s.itemWeights[last]
		s.items = s.items[:last]
		s.itemWeights = s.itemWeights[:last]
	}

	var carriedItem T
	var carriedWeight float64
	hasCarried := s.partialItem != nil
	if hasCarried {
		carriedItem = *s.partialItem
		carriedWeight = s.partialWeight
		s.partialItem = nil
		s.partialWeight = 0
	}

	if len(s.items) < target {
		promoteCarried := hasCarried && s.random.Float64() >= s.rho*weight
		if promoteCarried {
			s.items = append(s.items, carriedItem)
			s.itemWeights = append(s.itemWeights, carriedWeight)
			s.setPartial(item, weight)
		} else {
			s.items = append(s.items, item)
			s.itemWeights = append(s.itemWeights, weight)
			if hasCarried {
				s.setPartial(carriedItem, carriedWeight)
			}
		}
		return nil
	}

	if !hasCarried {
		s.setPartial(item, weight)
		return nil
	}

	total := carriedWeight + weight
	if total <= 0 {
		return nil
	}
	if s.random.Float64() < weight/total {
		s.setPartial(item, weight)
	} else {
		s.setPartial(carriedItem, carriedWeight)
	}
	return nil
}

func (s *EbppsItemsSketch[T]) setPartial(item T, weight float64) {
	v := item
	s.partialItem = &v
	s.partialWeight = weight
}

// Merge folds other's sample into s. Both sketches are first reweighted to
// the smaller of their two rho values so items from either side carry
// consistent inclusion probabilities, then their samples are pooled and
// trimmed back to min(s.k, other.k).
func (s *EbppsItemsSketch[T]) Merge(other *EbppsItemsSketch[T]) error {
	if other == nil || other.n == 0 {
		return nil
	}
	if s.n == 0 {
		own := s.random
		*s = *other.Copy()
		s.random = own
		return nil
	}

	newK := s.k
	if other.k < newK {
		newK = other.k
	}

	targetRho := s.rho
	switch {
	case s.rho == 0:
		targetRho = other.rho
	case other.rho == 0:
		targetRho = s.rho
	case other.rho < s.rho:
		targetRho = other.rho
	}

	s.reweightTo(targetRho)
	otherCopy := other.Copy()
	otherCopy.reweightTo(targetRho)

	s.cumulativeWeight += other.cumulativeWeight
	if other.maxWeight > s.maxWeight {
		s.maxWeight = other.maxWeight
	}
	s.k = newK
	s.rho = targetRho
	s.c = targetRho * s.cumulativeWeight
	if s.c > float64(s.k) {
		s.c = float64(s.k)
	}

	s.items = append(s.items, otherCopy.items...)
	s.itemWeights = append(s.itemWeights, otherCopy.itemWeights...)

	if otherCopy.partialItem != nil {
		if s.partialItem == nil {
			s.partialItem = otherCopy.partialItem
			s.partialWeight = otherCopy.partialWeight
		} else {
			total := s.partialWeight + otherCopy.partialWeight
			if total > 0 && s.random.Float64() < otherCopy.partialWeight/total {
				s.partialItem = otherCopy.partialItem
				s.partialWeight = otherCopy.partialWeight
			}
		}
	}

	target := int(math.Floor(s.c))
	if target > s.k {
		target = s.k
	}
	for len(s.items) > target {
		idx := s.random.Intn(len(s.items))
		last := len(s.items) - 1
		s.items[idx] = s.items[last]
		s.itemWeights[idx] = s.itemWeights[last]
		s.items = s.items[:last]
		s.itemWeights = s.itemWeights[:last]
	}

	return nil
}

// GetResult returns the full items, plus the partial item with probability
// c - floor(c).
func (s *EbppsItemsSketch[T]) GetResult() []T {
	out := make([]T, len(s.items), len(s.items)+1)
	copy(out, s.items)
	if s.partialItem != nil {
		presence := s.c - math.Floor(s.c)
		if s.random.Float64() < presence {
			out = append(out, *s.partialItem)
		}
	}
	return out
}

// EstimateSubsetSum computes a lower bound, estimate, and upper bound for
// the total weight of stream items matching predicate. Each currently
// retained full item contributes a constant 1/rho when it matches (the
// Horvitz-Thompson weight for an item admitted with probability rho*weight),
// and the partial item contributes its own share scaled by its presence
// probability.
func (s *EbppsItemsSketch[T]) EstimateSubsetSum(predicate func(T) bool) (SampleSubsetSummary, error) {
	if s.n == 0 {
		return SampleSubsetSummary{}, nil
	}

	totalWeight := 0.0
	matchCount := 0
	for i, it := range s.items {
		totalWeight += s.itemWeights[i]
		if predicate(it) {
			matchCount++
		}
	}

	partialPresence := 0.0
	partialMatches := false
	if s.partialItem != nil {
		partialPresence = s.c - math.Floor(s.c)
		totalWeight += s.partialWeight * partialPresence
		partialMatches = predicate(*s.partialItem)
	}

	if s.rho <= 0 {
		return SampleSubsetSummary{TotalSketchWeight: totalWeight}, nil
	}

	estimate := float64(matchCount) / s.rho
	if partialMatches {
		estimate += partialPresence / s.rho
	}

	// Bounds are symmetric around the point estimate within the scale of a
	// single slot's contribution, clamped so always-true/always-false
	// predicates collapse exactly onto total/zero as required.
	slotWeight := 1.0 / s.rho
	lower := estimate - slotWeight
	if lower < 0 {
		lower = 0
	}
	upper := estimate + slotWeight
	if upper > totalWeight {
		upper = totalWeight
	}
	if matchCount == 0 && !partialMatches {
		lower = 0
	}
	if matchCount == len(s.items) && (s.partialItem == nil || partialMatches) {
		upper = totalWeight
		estimate = totalWeight
	}

	return SampleSubsetSummary{
		LowerBound:        lower,
		Estimate:          estimate,
		UpperBound:        upper,
		TotalSketchWeight: totalWeight,
	}, nil
}

// EbppsItemsSketchEncoder writes a serialized EBPPS sketch to an io.Writer.
type EbppsItemsSketchEncoder[T any] struct {
	w     io.Writer
	serde ItemsSerDe[T]
}

// NewEbppsItemsSketchEncoder creates an encoder with the provided writer and serde.
func NewEbppsItemsSketchEncoder[T any](w io.Writer, serde ItemsSerDe[T]) EbppsItemsSketchEncoder[T] {
	return EbppsItemsSketchEncoder[T]{w: w, serde: serde}
}

// Encode writes the serialized sketch to the encoder's writer.
func (e EbppsItemsSketchEncoder[T]) Encode(sketch *EbppsItemsSketch[T]) error {
	if e.w == nil {
		return fmt.Errorf("%w: nil writer", ErrInvalidArgument)
	}
	data, err := sketch.ToSlice(e.serde)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// EbppsItemsSketchDecoder reads a serialized EBPPS sketch from an io.Reader.
type EbppsItemsSketchDecoder[T any] struct {
	r     io.Reader
	serde ItemsSerDe[T]
}

// NewEbppsItemsSketchDecoder creates a decoder with the provided reader and serde.
func NewEbppsItemsSketchDecoder[T any](r io.Reader, serde ItemsSerDe[T]) EbppsItemsSketchDecoder[T] {
	return EbppsItemsSketchDecoder[T]{r: r, serde: serde}
}

// Decode reads all bytes from the decoder's reader and deserializes the sketch.
func (d EbppsItemsSketchDecoder[T]) Decode() (*EbppsItemsSketch[T], error) {
	if d.r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, err
	}
	return NewEbppsItemsSketchFromSlice[T](data, d.serde)
}

const (
	ebppsPreambleLongsEmpty = 1
	ebppsPreambleLongsFull  = 7
	ebppsSerVer             = 1
	ebppsFlagEmpty          = 0x04
	ebppsFlagHasPartial     = 0x08
)

// ToSlice serializes the sketch to a byte slice.
func (s *EbppsItemsSketch[T]) ToSlice(serde ItemsSerDe[T]) ([]byte, error) {
	if s.IsEmpty() {
		buf := make([]byte, 8)
		buf[0] = ebppsPreambleLongsEmpty
		buf[1] = ebppsSerVer
		buf[2] = byte(internal.FamilyEnum.EBPPS.Id)
		buf[3] = ebppsFlagEmpty
		binary.LittleEndian.PutUint32(buf[4:], uint32(s.k))
		return buf, nil
	}

	hasPartial := s.partialItem != nil
	flags := byte(0)
	if hasPartial {
		flags |= ebppsFlagHasPartial
	}

	allItems := make([]T, 0, len(s.items)+1)
	allItems = append(allItems, s.items...)
	if hasPartial {
		allItems = append(allItems, *s.partialItem)
	}
	itemBytes, err := serde.SerializeToBytes(allItems)
	if err != nil {
		return nil, err
	}

	headerBytes := ebppsPreambleLongsFull * 8
	weightsBytes := len(s.itemWeights) * 8
	partialWeightBytes := 0
	if hasPartial {
		partialWeightBytes = 8
	}

	buf := make([]byte, headerBytes+weightsBytes+partialWeightBytes+len(itemBytes))
	buf[0] = byte(ebppsPreambleLongsFull)
	buf[1] = ebppsSerVer
	buf[2] = byte(internal.FamilyEnum.EBPPS.Id)
	buf[3] = flags
	binary.LittleEndian.PutUint32(buf[4:], uint32(s.k))
	binary.LittleEndian.PutUint64(buf[8:], uint64(s.n))
	binary.LittleEndian.PutUint32(buf[16:], uint32(len(s.items)))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(s.cumulativeWeight))
	binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(s.maxWeight))
	binary.LittleEndian.PutUint64(buf[40:], math.Float64bits(s.rho))
	binary.LittleEndian.PutUint64(buf[48:], math.Float64bits(s.c))

	offset := headerBytes
	for i, w := range s.itemWeights {
		binary.LittleEndian.PutUint64(buf[offset+i*8:], math.Float64bits(w))
	}
	offset += weightsBytes
	if hasPartial {
		binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(s.partialWeight))
		offset += 8
	}
	copy(buf[offset:], itemBytes)

	return buf, nil
}

// NewEbppsItemsSketchFromSlice deserializes a sketch from a byte slice.
func NewEbppsItemsSketchFromSlice[T any](data []byte, serde ItemsSerDe[T]) (*EbppsItemsSketch[T], error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: data too short", ErrCorruptImage)
	}

	preLongs := int(data[0] & 0x3F)
	serVer := data[1]
	family := data[2]
	flags := data[3]
	k := int(binary.LittleEndian.Uint32(data[4:]))

	if serVer != ebppsSerVer {
		return nil, fmt.Errorf("%w: unsupported serialization version", ErrCorruptImage)
	}
	if family != byte(internal.FamilyEnum.EBPPS.Id) {
		return nil, fmt.Errorf("%w: wrong sketch family", ErrCorruptImage)
	}
	if k < 1 || k > varOptMaxK {
		return nil, fmt.Errorf("%w: k out of range", ErrCorruptImage)
	}

	if (flags&ebppsFlagEmpty) != 0 || preLongs == ebppsPreambleLongsEmpty {
		return NewEbppsItemsSketch[T](k)
	}

	if preLongs != ebppsPreambleLongsFull {
		return nil, fmt.Errorf("%w: invalid preamble longs", ErrCorruptImage)
	}
	headerBytes := ebppsPreambleLongsFull * 8
	if len(data) < headerBytes {
		return nil, fmt.Errorf("%w: data too short for preamble", ErrCorruptImage)
	}

	n := int64(binary.LittleEndian.Uint64(data[8:]))
	itemCount := int(binary.LittleEndian.Uint32(data[16:]))
	cumulativeWeight := math.Float64frombits(binary.LittleEndian.Uint64(data[24:]))
	maxWeight := math.Float64frombits(binary.LittleEndian.Uint64(data[32:]))
	rho := math.Float64frombits(binary.LittleEndian.Uint64(data[40:]))
	c := math.Float64frombits(binary.LittleEndian.Uint64(data[48:]))

	if math.IsNaN(cumulativeWeight) {
		return nil, fmt.Errorf("%w: cumulative weight is NaN", ErrCorruptImage)
	}
	if math.IsInf(maxWeight, 0) {
		return nil, fmt.Errorf("%w: max weight is infinite", ErrCorruptImage)
	}
	if rho < 0 {
		return nil, fmt.Errorf("%w: negative rho", ErrCorruptImage)
	}
	if c < 0 {
		return nil, fmt.Errorf("%w: negative c", ErrCorruptImage)
	}
	if n < 0 || itemCount < 0 {
		return nil, fmt.Errorf("%w: negative count", ErrCorruptImage)
	}

	hasPartial := (flags & ebppsFlagHasPartial) != 0
	weightsBytes := itemCount * 8
	partialWeightBytes := 0
	if hasPartial {
		partialWeightBytes = 8
	}
	if len(data) < headerBytes+weightsBytes+partialWeightBytes {
		return nil, fmt.Errorf("%w: data too short for weights", ErrCorruptImage)
	}

	weights := make([]float64, itemCount)
	off := headerBytes
	for i := range weights {
		weights[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off+i*8:]))
	}
	off += weightsBytes

	var partialWeight float64
	if hasPartial {
		partialWeight = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		off += 8
	}

	totalItems := itemCount
	if hasPartial {
		totalItems++
	}
	items, err := serde.DeserializeFromBytes(data[off:], totalItems)
	if err != nil {
		return nil, err
	}
	if len(items) != totalItems {
		return nil, fmt.Errorf("%w: item count mismatch", ErrCorruptImage)
	}

	sketch := &EbppsItemsSketch[T]{
		k:                k,
		n:                n,
		cumulativeWeight: cumulativeWeight,
		maxWeight:        maxWeight,
		rho:              rho,
		c:                c,
		random:           defaultRandomSource,
	}
	sketch.items = make([]T, itemCount)
	copy(sketch.items, items[:itemCount])
	sketch.itemWeights = weights
	if hasPartial {
		p := items[itemCount]
		sketch.partialItem = &p
		sketch.partialWeight = partialWeight
	}

	return sketch, nil
}

// String returns a human-readable summary of the sketch.
func (s *EbppsItemsSketch[T]) String() string {
	return fmt.Sprintf(
		"\n### EbppsItemsSketch SUMMARY:\n   k            : %d\n   n            : %d\n   c            : %f\n   rho          : %f\n   full items   : %d\n   has partial  : %t\n### END SKETCH SUMMARY\n",
		s.k, s.n, s.c, s.rho, len(s.items), s.partialItem != nil,
	)
}
