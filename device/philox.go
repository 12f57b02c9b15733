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

package device

import (
	"math"

	"github.com/zintix-labs/galaxis/sdk/dist"
)

// Philox4x32-10：counter-based，同一組 (counter, key) 永遠得到同一組輸出，
// 每個 work-item 不需要任何共享狀態。key 為兩個 32-bit word，
// 完整吃下 64-bit group seed。
const (
	philoxM0    = 0xD2511F53
	philoxM1    = 0xCD9E8D57
	philoxBump0 = 0x9E3779B9
	philoxBump1 = 0xBB67AE85
	philoxR     = 10
)

func mulhilo(a, b uint32) (hi, lo uint32) {
	prod := uint64(a) * uint64(b)
	return uint32(prod >> 32), uint32(prod)
}

func philox4x32(ctr [4]uint32, key [2]uint32) [4]uint32 {
	for r := 0; r < philoxR; r++ {
		hi0, lo0 := mulhilo(philoxM0, ctr[0])
		hi1, lo1 := mulhilo(philoxM1, ctr[2])
		ctr = [4]uint32{hi1 ^ ctr[1] ^ key[0], lo1, hi0 ^ ctr[3] ^ key[1], lo0}
		key[0] += philoxBump0
		key[1] += philoxBump1
	}
	return ctr
}

// unitOpen 把 uint32 映射到開區間 (0,1)，ln(u) 永遠有限。
func unitOpen(v uint32) float32 {
	const factor = float32(1) / (float32(math.MaxUint32) + 1)
	const half = 0.5 * factor
	f := float32(v)*factor + half
	if f >= 1 {
		return math.Float32frombits(0x3F7FFFFF)
	}
	return f
}

// itemStream 為單一 work-item 的亂數流：key 為 group seed 的低/高 32 bit，
// counter 為 (呼叫次數, item 在 group 內的序號)。
type itemStream struct {
	key  [2]uint32
	item uint32
	step uint32
}

func newItemStream(seed int64, item int) itemStream {
	s := uint64(seed)
	return itemStream{key: [2]uint32{uint32(s), uint32(s >> 32)}, item: uint32(item)}
}

func (s *itemStream) next() [4]uint32 {
	out := philox4x32([4]uint32{s.step, s.item, 0, 0}, s.key)
	s.step++
	return out
}

// generatePoints 為內建 kernel 的單一 work-group 實作：
// x = Radial(u0)，y = Height(u1, sign)，z = Depth(u2)，全部經過 Guard。
func generatePoints(g WorkGroup) error {
	for i := 0; i < g.Size; i++ {
		st := newItemStream(g.Seed, i)
		u := st.next()
		x := dist.Radial(unitOpen(u[0]), g.RadialRate)
		y := dist.Height(unitOpen(u[1]), u[3]&1 == 1, g.VerticalRate)
		z := dist.Depth(unitOpen(u[2]))
		o := g.Out[i*3 : i*3+3 : i*3+3]
		o[0], o[1], o[2] = dist.Guard(x), dist.Guard(y), dist.Guard(z)
	}
	return nil
}
