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

// weightedRegionSubsetSum produces a Horvitz-Thompson style subset-sum bound
// for a uniformly-weighted sampled region (VarOpt's R region, or the whole of
// an EBPPS sketch): rMatches out of r retained items satisfy the predicate,
// and together the r items stand in for totalWeight of stream mass. The
// bounds come from the same pseudo-hypergeometric proportion-on-p estimator
// reservoir sampling uses, parameterized by how much of the represented
// population was actually retained (samplingRate).
func weightedRegionSubsetSum(rMatches, r int, totalWeight, samplingRate float64) (lower, estimate, upper float64, err error) {
	if r == 0 {
		return 0, 0, 0, nil
	}

	estimatedFraction := float64(rMatches) / float64(r)
	estimate = estimatedFraction * totalWeight

	if samplingRate >= 1.0 {
		return estimate, estimate, estimate, nil
	}

	lowerFraction, err := pseudoHypergeometricLowerBoundOnP(uint64(r), uint64(rMatches), samplingRate)
	if err != nil {
		return 0, 0, 0, err
	}
	upperFraction, err := pseudoHypergeometricUpperBoundOnP(uint64(r), uint64(rMatches), samplingRate)
	if err != nil {
		return 0, 0, 0, err
	}

	return lowerFraction * totalWeight, estimate, upperFraction * totalWeight, nil
}
