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

import (
	"crypto/rand"
	"math"
	"math/big"
	"sync/atomic"
)

// RandomSeed 以加密亂數產生非負 int64 seed，僅在外部未指定 seed 時使用。
func RandomSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, err
	}
	return seed.Int64(), nil
}

const mask63 = uint64(1<<63) - 1

// SeedMaker 由一個 base seed 派生一串互不重複的子 seed。
//
// 每個 run（或每個 backend）都從 SeedMaker 取得自己的 seed，
// 只要 base seed 相同，整個派生序列就相同。
type SeedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func NewSeedMaker(seed int64) *SeedMaker {
	s := &SeedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// Next 推進全週期 LCG（mod 2^63）後以可逆 mix63 打散。
// 可被多個 goroutine 同時呼叫：以 CAS 保證每次取得唯一的下一個 state。
func (s *SeedMaker) Next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
