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

	"github.com/apache/datasketches-go/internal"
)

// Byte offsets shared by every sampling family's preamble. Each family
// keeps its own ToSlice/FromSlice pair (reservoir, reservoir union,
// VarOpt, VarOpt union, EBPPS all lay out their family-specific fields
// differently from byte 16 onward) but all five agree on this much.
const (
	preLongsByteOffset = 0
	serVerByteOffset   = 1
	familyByteOffset   = 2
	flagsByteOffset    = 3
	kInt32Offset       = 4
	nInt64Offset       = 8
	familyDataOffset   = 16
)

// preambleHeader is the portion of any sampling preamble common across
// families, decoded for diagnostics or validation.
type preambleHeader struct {
	preLongs int
	serVer   int
	family   int
	flags    byte
	k        int
	n        int64
}

func readPreambleHeader(data []byte) (preambleHeader, error) {
	if len(data) < 8 {
		return preambleHeader{}, fmt.Errorf("%w: preamble shorter than 8 bytes", ErrCorruptImage)
	}
	h := preambleHeader{
		preLongs: int(data[preLongsByteOffset] & 0x3F),
		serVer:   int(data[serVerByteOffset]),
		family:   int(data[familyByteOffset]),
		flags:    data[flagsByteOffset],
		k:        int(binary.LittleEndian.Uint32(data[kInt32Offset:])),
	}
	if len(data) >= nInt64Offset+8 {
		h.n = int64(binary.LittleEndian.Uint64(data[nInt64Offset:]))
	}
	return h, nil
}

// familyName returns a human-readable name for a sampling family id, for
// use by PreambleToString; unknown ids are rendered numerically.
func familyName(id int) string {
	switch id {
	case internal.FamilyEnum.ReservoirItems.Id:
		return "RESERVOIR_ITEMS"
	case internal.FamilyEnum.ReservoirUnion.Id:
		return "RESERVOIR_UNION"
	case internal.FamilyEnum.VarOptItems.Id:
		return "VAROPT_ITEMS"
	case internal.FamilyEnum.VarOptUnion.Id:
		return "VAROPT_UNION"
	case internal.FamilyEnum.EBPPS.Id:
		return "EBPPS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", id)
	}
}

// PreambleToString decodes the common preamble fields of any sampling
// image and renders a short human-readable summary, the introspection
// primitive an embedding CLI can expose without this package needing to
// know about any CLI framework.
func PreambleToString(data []byte) (string, error) {
	h, err := readPreambleHeader(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"preLongs=%d serVer=%d family=%s flags=0x%02x k=%d n=%d",
		h.preLongs, h.serVer, familyName(h.family), h.flags, h.k, h.n,
	), nil
}
