// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features 描述目前行程可用的 SIMD 能力，僅供 log / 報表使用。
// lane 運算本身以固定寬度陣列撰寫，交由編譯器處理。
type Features struct {
	LaneWidth    int
	HasAVX2      bool
	HasAVX512    bool
	HasSSE2      bool
	HasNEON      bool
	Architecture string
}

// DetectFeatures 回報目前行程可用的 CPU 特性。
func DetectFeatures() Features {
	return Features{
		LaneWidth:    LaneWidth,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512,
		HasSSE2:      cpu.X86.HasSSE2,
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
	}
}

func (f Features) String() string {
	var sb strings.Builder
	sb.WriteString(f.Architecture)
	sb.WriteString(" lanes=")
	sb.WriteString(strconv.Itoa(f.LaneWidth))
	for _, flag := range []struct {
		on   bool
		name string
	}{
		{f.HasSSE2, "sse2"},
		{f.HasAVX2, "avx2"},
		{f.HasAVX512, "avx512"},
		{f.HasNEON, "neon"},
	} {
		if flag.on {
			sb.WriteString(" +")
			sb.WriteString(flag.name)
		}
	}
	return sb.String()
}
