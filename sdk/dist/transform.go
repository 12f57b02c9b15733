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

// Package dist 提供圓盤分布的純數學轉換（無狀態）。
//
// 三個 backend 共用這一層：
//   - Vector / Device backend：Radial / Height / Depth（含 lane 版本）
//   - Scalar backend：ScalarSampler（gonum distuv 的 Exponential / Bernoulli）
//
// 合約：u 應在 (0,1)。u == 0 時 ln(0) = -Inf，經過後續運算會變成 NaN；
// 這裡不做任何防禦，NaN 是唯一的失敗訊號，由呼叫端以 Guard 取代為 0.0。
package dist

import (
	"math"

	"github.com/zintix-labs/galaxis/errs"
)

// Rates 為圓盤分布的兩個尺度參數（指數分布的 rate λ）。
type Rates struct {
	Radial   float32 // 徑向 rate
	Vertical float32 // 垂直 rate
}

// DefaultRates 對應銀河半徑 30003.26 / 厚度 2503.26（光年）的倒數。
var DefaultRates = Rates{
	Radial:   1.0 / 30003.2615637769,
	Vertical: 1.0 / 2503.2615637769,
}

// Validate 檢查兩個 rate 皆為有限正數。
func (r Rates) Validate() error {
	if !positive(r.Radial) {
		return errs.Warnf("radial rate must be finite and > 0, got %v", r.Radial)
	}
	if !positive(r.Vertical) {
		return errs.Warnf("vertical rate must be finite and > 0, got %v", r.Vertical)
	}
	return nil
}

func positive(v float32) bool {
	f := float64(v)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Radial 計算 cos(-ln(u) / rate)。
func Radial(u, rate float32) float32 {
	return float32(math.Cos(-math.Log(float64(u)) / float64(rate)))
}

// Height 計算 sin(s * ln(u) / rate)，sign 為 true 時 s = -1，否則 s = +1。
//
// sin 為奇函數，所以 Height(u, true, r) == -Height(u, false, r)。
func Height(u float32, sign bool, rate float32) float32 {
	a := math.Log(float64(u)) / float64(rate)
	if sign {
		a = -a
	}
	return float32(math.Sin(a))
}

// Depth 為恆等轉換：第三個座標就是原始的均勻亂數。
func Depth(u float32) float32 {
	return u
}

// Guard 把非有限值（NaN / ±Inf）換成 0.0，其餘原樣回傳。
// Guard(Guard(v)) == Guard(v)。
func Guard(v float32) float32 {
	if v != v || v > math.MaxFloat32 || v < -math.MaxFloat32 {
		return 0
	}
	return v
}

// ------------------------------------------------------------
// lane 版本：dst 與輸入等長（輸入至少與 dst 一樣長），逐 lane 套用上面的轉換。
// 不做 Guard，Guard 在 pack 成 record 時統一處理。
// ------------------------------------------------------------

// RadialLanes dst[i] = Radial(src[i], rate)
func RadialLanes(dst, src []float32, rate float32) {
	src = src[:len(dst)]
	r := float64(rate)
	for i, u := range src {
		dst[i] = float32(math.Cos(-math.Log(float64(u)) / r))
	}
}

// HeightLanes dst[i] = Height(src[i], signs[i], rate)
func HeightLanes(dst, src []float32, signs []bool, rate float32) {
	src = src[:len(dst)]
	signs = signs[:len(dst)]
	r := float64(rate)
	for i, u := range src {
		a := math.Log(float64(u)) / r
		if signs[i] {
			a = -a
		}
		dst[i] = float32(math.Sin(a))
	}
}

// DepthLanes dst[i] = src[i]
func DepthLanes(dst, src []float32) {
	copy(dst, src[:len(dst)])
}

// GuardLanes 就地對每個 lane 套用 Guard。
func GuardLanes(v []float32) {
	for i := range v {
		v[i] = Guard(v[i])
	}
}
