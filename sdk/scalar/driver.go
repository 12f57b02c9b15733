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

// Package scalar 實作 Scalar backend：一次一個點的參考實作。
//
// 注意：這裡的 x 是原始的指數分布樣本，Vector backend 的 x 則是 cos(指數樣本)；
// 兩者的邊際分布不同，這是刻意保留的行為，不要在這裡「修正」成一致。
package scalar

import (
	"github.com/zintix-labs/galaxis/sdk/buf"
	"github.com/zintix-labs/galaxis/sdk/core"
	"github.com/zintix-labs/galaxis/sdk/dist"
)

// Driver 為單執行緒的逐點產生器，不可併發使用。
type Driver struct {
	core    *core.Core
	sampler *dist.ScalarSampler
}

// New 建立 Driver。rates 由呼叫端驗證。
func New(rates dist.Rates, rng core.PRNG) *Driver {
	c := core.New(rng)
	return &Driver{
		core:    c,
		sampler: dist.NewScalarSampler(rates, c),
	}
}

// Next 產生一個點：(Exponential(radial), ±Exponential(vertical), U[0,1))。
// 指數取樣不會產生 NaN，但仍然套用 Guard 以維持「輸出皆為有限值」的合約。
func (d *Driver) Next() buf.Point3 {
	x := d.sampler.Radial()
	y := d.sampler.Height()
	z := d.core.Float32()
	return buf.Pack3(x, y, z)
}

// Fill 逐點覆寫整個 dst。
func (d *Driver) Fill(dst []buf.Point3) {
	for i := range dst {
		dst[i] = d.Next()
	}
}
