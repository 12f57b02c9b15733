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

package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// Uint64 同時滿足 math/rand/v2 的 Source 介面，
// 因此任何 RAND 都可以直接交給 gonum distuv 當作 Src。
type RAND interface {
	// Uint64 回傳 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：同一實作同一版本下 New(seed) 必須是決定性的，
	// 相同 seed 產生相同輸出序列。backend 的 byte-for-byte 重現性建立在此合約上。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，提供取樣引擎需要的批次填充方法。
//
// Core 不是併發安全的：每個 driver 持有自己的 Core。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

const float32Unit = 1.0 / (1 << 24)

// Float32 回傳 [0,1) 的 float32（24-bit 精度，剛好是 float32 的 mantissa 寬度）。
//
// 注意：0 是合法輸出，下游 ln(u) 必須自己處理 u == 0。
func (c *Core) Float32() float32 {
	return float32(c.Uint64()>>40) * float32Unit
}

// Bool 回傳公平的布林值。
func (c *Core) Bool() bool {
	return c.Uint64()>>63 == 1
}

// Int64 回傳完整 64-bit 範圍的 int64（可為負數），用於 device seed。
func (c *Core) Int64() int64 {
	return int64(c.Uint64())
}

// FillFloat32 以獨立的 [0,1) 亂數覆寫整個 dst。
func (c *Core) FillFloat32(dst []float32) {
	for i := range dst {
		dst[i] = float32(c.Uint64()>>40) * float32Unit
	}
}

// FillBool 以獨立的公平位元覆寫整個 dst。
// 每次 Uint64 提供 64 個位元，熱路徑上不要逐個呼叫 Bool。
func (c *Core) FillBool(dst []bool) {
	var bits uint64
	left := 0
	for i := range dst {
		if left == 0 {
			bits = c.Uint64()
			left = 64
		}
		dst[i] = bits&1 == 1
		bits >>= 1
		left--
	}
}

// FillInt64 以獨立的 int64 覆寫整個 dst。
func (c *Core) FillInt64(dst []int64) {
	for i := range dst {
		dst[i] = int64(c.Uint64())
	}
}
