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

// Package device 實作 Device backend：kernel dispatch + host seeding + 重疊寫出的 pipeline。
//
// 核心只定義呼叫合約（Device / Kernel / Event），實際的計算裝置可以替換；
// 內建的 HostDevice 在行程內模擬裝置，work-group 以 goroutine 平行執行。
package device

import (
	"context"
)

// KernelGeneratePoints 為產生點雲的 kernel 名稱。
//
// 參數合約：(seeds []int64, result []float32 (3N), radial float32, vertical float32)。
const KernelGeneratePoints = "generate_points"

// Buffer 為裝置端記憶體的不透明 handle。
type Buffer interface {
	// Len 回傳元素個數（seed 為 int64 個數，result 為 float32 個數）。
	Len() int
}

// Device 計算裝置
type Device interface {
	// UploadSeeds 將 seeds 複製到唯讀的裝置 buffer。
	UploadSeeds(seeds []int64) (Buffer, error)
	// AllocResult 配置可容納 points 個點（3*points 個 float32）且已歸零的 buffer。
	AllocResult(points int) (Buffer, error)
	// Kernel 依名稱取得（必要時建置）kernel。
	Kernel(name string) (Kernel, error)
	// Read 把 src 的內容複製回 host 的 dst（長度必須相同）。
	Read(src Buffer, dst []float32) error
	// Release 歸還 buffer，之後不得再使用。
	Release(b Buffer)
	Close() error
}

// Launch 一次 dispatch 的全部參數。
type Launch struct {
	Seeds        Buffer
	Result       Buffer
	RadialRate   float32
	VerticalRate float32
	GlobalSize   int // 總點數 N
	GroupSize    int // 每個 work-group 的點數；N / GroupSize == len(Seeds)
}

// Kernel 已建置好的裝置程式。
type Kernel interface {
	Name() string
	// Enqueue 非同步送出 dispatch，回傳可等待的完成事件。
	Enqueue(ctx context.Context, l Launch) (Event, error)
}

// Event dispatch 的完成訊號。
type Event interface {
	// Wait 阻塞到 kernel 完成，回傳執行期間的錯誤。可重複呼叫。
	Wait() error
}
