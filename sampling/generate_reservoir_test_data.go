//go:build ignore
// +build ignore

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

// This program regenerates fixture files used by the serialization
// round-trip tests. Run with: go run generate_reservoir_test_data.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/datasketches-go/sampling"
)

func main() {
	outputDir := filepath.Join("serialization_test_data", "go_generated_files")

	generateEmptySketch(outputDir, 10)
	generateSketch(outputDir, 100, 10)
	generateSketch(outputDir, 10, 10)
	generateSketch(outputDir, 10, 100)

	fmt.Println("All reservoir test data files generated successfully!")
}

func generateEmptySketch(dir string, k int) {
	sketch, err := sampling.NewReservoirItemsSketch[int64](k)
	if err != nil {
		fmt.Printf("Error creating sketch k=%d: %v\n", k, err)
		return
	}
	data, err := sketch.ToSlice(sampling.Int64SerDe{})
	if err != nil {
		fmt.Printf("Error serializing sketch k=%d: %v\n", k, err)
		return
	}
	writeFile(dir, fmt.Sprintf("reservoir_long_n0_k%d_go.sk", k), data)
}

func generateSketch(dir string, k, n int) {
	sketch, err := sampling.NewReservoirItemsSketch[int64](k)
	if err != nil {
		fmt.Printf("Error creating sketch k=%d: %v\n", k, err)
		return
	}
	for i := int64(1); i <= int64(n); i++ {
		if err := sketch.Update(i); err != nil {
			fmt.Printf("Error updating sketch k=%d n=%d: %v\n", k, n, err)
			return
		}
	}
	data, err := sketch.ToSlice(sampling.Int64SerDe{})
	if err != nil {
		fmt.Printf("Error serializing sketch k=%d n=%d: %v\n", k, n, err)
		return
	}
	writeFile(dir, fmt.Sprintf("reservoir_long_n%d_k%d_go.sk", n, k), data)
}

func writeFile(dir, filename string, data []byte) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Error creating dir %s: %v\n", dir, err)
		return
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", filename, err)
		return
	}
	fmt.Printf("Generated: %s (%d bytes)\n", filename, len(data))
}
