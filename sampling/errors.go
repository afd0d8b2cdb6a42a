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

import "errors"

// Sentinel errors for the sampling package's error taxonomy. Call sites
// wrap one of these with fmt.Errorf("...: %w", ErrX) so that callers can
// test the kind with errors.Is while still getting a field-specific
// message. A broken internal invariant (heap order, tau*r != totalWeightR)
// indicates a library bug rather than bad caller input, so it panics
// instead of returning an error - see invariantViolation below.
var (
	// ErrInvalidArgument covers k out of range, a non-positive/NaN/infinite
	// weight, or any other caller-supplied value outside its valid domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCapacityExceeded is returned when n would exceed 2^48-2 items.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrCorruptImage is returned when a serialized image fails a
	// preamble or payload invariant.
	ErrCorruptImage = errors.New("corrupt image")

	// ErrIncompatibleState covers decreasing k below the minimum supported
	// value, or merging sketches of incompatible shape.
	ErrIncompatibleState = errors.New("incompatible state")

	// ErrReadOnly is returned when Update is called on a sketch built from
	// an immutable image.
	ErrReadOnly = errors.New("sketch is read-only")
)

// invariantViolation panics with a message identifying which internal
// invariant broke. This can only be triggered by a bug in this package,
// never by caller input, so it is treated as unrecoverable rather than a
// returned error.
func invariantViolation(msg string) {
	panic("internal invariant violated: " + msg)
}
