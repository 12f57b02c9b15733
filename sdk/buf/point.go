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

// Package buf 定義點雲的固定寬度 record 與 batch。
//
// Point 沒有身份，只有它在輸出序列中的位置；產生後不再修改。
// Batch 由產生它的 driver 獨佔，交給 consumer（sink / stats）後才可重用。
package buf

import "github.com/zintix-labs/galaxis/sdk/dist"

// Dims 每個點的座標數。
const Dims = 3

// Point3 為緊密的 3-wide record（scalar / device backend）。
type Point3 [Dims]float32

// Point4 為 4-wide record（vector backend），第 4 個 lane 恆為 0 作為對齊用 padding。
type Point4 [4]float32

// Pack3 以 Guard 過的座標組出 Point3。
func Pack3(x, y, z float32) Point3 {
	return Point3{dist.Guard(x), dist.Guard(y), dist.Guard(z)}
}

// Pack4 以 Guard 過的座標組出 Point4（padding lane = 0）。
func Pack4(x, y, z float32) Point4 {
	return Point4{dist.Guard(x), dist.Guard(y), dist.Guard(z), 0}
}

// XYZ 回傳前三個 lane。
func (p Point4) XYZ() Point3 {
	return Point3{p[0], p[1], p[2]}
}

// Flat 為 device backend 的 batch：3N 個 float32，point-major（x0 y0 z0 x1 y1 z1 ...）。
type Flat []float32

// NewFlat 配置可容納 n 個點的零值 batch。
func NewFlat(n int) Flat {
	return make(Flat, n*Dims)
}

// Len 回傳點數。
func (f Flat) Len() int {
	return len(f) / Dims
}

// At 回傳第 i 個點。
func (f Flat) At(i int) Point3 {
	j := i * Dims
	return Point3{f[j], f[j+1], f[j+2]}
}

// Guard 就地把所有非有限值換成 0.0。
func (f Flat) Guard() {
	dist.GuardLanes(f)
}

// Reset 清成零值，保留容量。
func (f Flat) Reset() {
	clear(f)
}
