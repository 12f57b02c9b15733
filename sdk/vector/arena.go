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

// LaneWidth 為每個 lane batch 同時處理的點數（編譯期固定）。
const LaneWidth = 64

// Lane 為一個 lane 寬度的 float32 向量。
type Lane [LaneWidth]float32

// Mask 為一個 lane 寬度的布林向量（sign bits）。
type Mask [LaneWidth]bool

// Arena 持有 Batch Driver 每一步會重用的 scratch buffer。
//
// 合約：每一步（Step）開始時所有 lane 都會被完整覆寫，
// 被下一個轉換消耗後就不再讀取；跨 step 不會讀到上一步的殘值。
type Arena struct {
	RawX  Lane // x 的均勻亂數
	RawY  Lane // y 的均勻亂數
	RawZ  Lane // z 的均勻亂數
	Signs Mask // y 的符號位

	X Lane
	Y Lane
	Z Lane
}
