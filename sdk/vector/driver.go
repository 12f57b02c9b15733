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

// Package vector 實作 Vector backend 的 Batch Driver。
//
// 每個 lane batch（寬度 LaneWidth）的流程：
//  1. 以 W 個均勻亂數填滿 lane A，套用 Radial 得到 W 個 x。
//  2. 以 W 個均勻亂數填滿 lane B、W 個 sign bit 填滿 mask，套用 Height 得到 W 個 y。
//  3. 以 W 個均勻亂數填滿 lane C，套用 Depth（恆等）得到 W 個 z。
//  4. 逐位置 pack 成 (x, y, z, 0)，pack 前先把 NaN 換成 0.0。
//
// Driver 永遠不會失敗：ln(0) 造成的 NaN 一律退化為 0.0。
package vector

import (
	"strings"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sdk/buf"
	"github.com/zintix-labs/galaxis/sdk/core"
	"github.com/zintix-labs/galaxis/sdk/dist"
)

// Remainder 決定點數無法被 LaneWidth 整除時的處理方式。
type Remainder uint8

const (
	// Strict 直接拒絕（設定錯誤）。
	Strict Remainder = iota
	// Pad 補滿最後一個 lane batch 後截斷輸出。
	Pad
)

var remainderNames = map[Remainder]string{
	Strict: "strict",
	Pad:    "pad",
}

func (r Remainder) String() string {
	return remainderNames[r]
}

// ParseRemainder 解析 "strict" / "pad"，空字串視為 strict。
func ParseRemainder(s string) (Remainder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "pad":
		return Pad, nil
	default:
		return Strict, errs.Warnf("unknown remainder policy %q (want strict|pad)", s)
	}
}

// Driver 為單執行緒的 lane batch 產生器，不可併發使用。
type Driver struct {
	rates dist.Rates
	core  *core.Core
	arena Arena
	tail  []buf.Point4 // Pad 模式最後一個 lane batch 的暫存
}

// New 建立 Driver。rates 由呼叫端驗證。
func New(rates dist.Rates, rng core.PRNG) *Driver {
	return &Driver{
		rates: rates,
		core:  core.New(rng),
	}
}

// Step 產生一個 lane batch 寫入 out。
func (d *Driver) Step(out *[LaneWidth]buf.Point4) {
	a := &d.arena

	// x
	d.core.FillFloat32(a.RawX[:])
	dist.RadialLanes(a.X[:], a.RawX[:], d.rates.Radial)

	// y
	d.core.FillFloat32(a.RawY[:])
	d.core.FillBool(a.Signs[:])
	dist.HeightLanes(a.Y[:], a.RawY[:], a.Signs[:], d.rates.Vertical)

	// z
	d.core.FillFloat32(a.RawZ[:])
	dist.DepthLanes(a.Z[:], a.RawZ[:])

	// scatter
	for i := range out {
		out[i] = buf.Pack4(a.X[i], a.Y[i], a.Z[i])
	}
}

// Fill 以連續的 lane batch 覆寫整個 dst，len(dst) 必須是 LaneWidth 的倍數。
func (d *Driver) Fill(dst []buf.Point4) error {
	if len(dst)%LaneWidth != 0 {
		return errs.Warnf("batch length %d is not a multiple of lane width %d", len(dst), LaneWidth)
	}
	for off := 0; off < len(dst); off += LaneWidth {
		d.Step((*[LaneWidth]buf.Point4)(dst[off : off+LaneWidth]))
	}
	return nil
}

// FillPadded 與 Fill 相同，但允許 len(dst) 不是 LaneWidth 的倍數：
// 最後一段會完整跑一個 lane batch，只把前面需要的點複製進 dst，其餘丟棄。
func (d *Driver) FillPadded(dst []buf.Point4) {
	full := len(dst) - len(dst)%LaneWidth
	for off := 0; off < full; off += LaneWidth {
		d.Step((*[LaneWidth]buf.Point4)(dst[off : off+LaneWidth]))
	}
	rest := dst[full:]
	if len(rest) == 0 {
		return
	}
	if d.tail == nil {
		d.tail = make([]buf.Point4, LaneWidth)
	}
	d.Step((*[LaneWidth]buf.Point4)(d.tail))
	copy(rest, d.tail)
}

// Generate 配置並產生 n 個點。
func (d *Driver) Generate(n int, rem Remainder) ([]buf.Point4, error) {
	if n <= 0 {
		return nil, errs.Warnf("point count must > 0, got %d", n)
	}
	if n%LaneWidth != 0 && rem == Strict {
		return nil, errs.Warnf("point count %d is not a multiple of lane width %d", n, LaneWidth)
	}
	out := make([]buf.Point4, n)
	d.FillPadded(out)
	return out, nil
}
