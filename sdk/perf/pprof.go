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

// Package perf 在 CLI 執行期間套上 pprof（cpu / heap / allocs）。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/galaxis/errs"
)

const DefaultDir = "build/profiling" // pprof檔案寫入路徑

// Modes 為可用的 profiling 模式；空字串代表不做 profiling。
var Modes = []string{"", "cpu", "heap", "allocs"}

// ValidMode 檢查 mode 是否為 Modes 之一。
func ValidMode(mode string) error {
	for _, m := range Modes {
		if m == mode {
			return nil
		}
	}
	return errs.Warnf("unknown pprof mode %q (want cpu|heap|allocs)", mode)
}

// RunPProf 依 mode 決定以哪種 profiling 包住 exe；dir 為空時寫到 DefaultDir。
// exe 的錯誤原樣回傳，profiling 本身的錯誤為 errs.Fatal。
func RunPProf(exe func() error, mode string, dir string) error {
	if err := ValidMode(mode); err != nil {
		return err
	}
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	// 確保目錄存在
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.NewFatal(err.Error()), "create pprof dir failed")
	}
	switch mode {
	case "cpu":
		return PProfCPU(exe, dir)
	case "heap":
		return PProfHeap(exe, dir)
	default:
		return PProfAllocs(exe, dir)
	}
}

// PProfCPU 對 exe 做 CPU profiling，輸出 dir/cpu.pprof。
//
// 可以作性能分析，也可以拿來做構建時給pgo的優化blueprint
//
// Usage like:
//
//	go run ./cmd/run -p cpu -backend vector
func PProfCPU(exe func() error, dir string) error {
	f, err := os.Create(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		return errs.Wrap(errs.NewFatal(err.Error()), "failed to create cpu.pprof")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(errs.NewFatal(err.Error()), "failed to start pprof")
	}
	defer pprof.StopCPUProfile()

	return exe()
}

// PProfHeap 會在 exe() 執行完後，寫出一次 Heap Snapshot（in-use memory），輸出 dir/heap.pprof。
// 寫出前呼叫一次 runtime.GC()，以獲得較準確的 Live Objects 視圖。
func PProfHeap(exe func() error, dir string) error {
	// 先執行目標邏輯，再拍一次快照
	runErr := exe()

	// 盡量讓快照貼近最新狀態
	runtime.GC()
	return firstErr(runErr, writeProfile(pprof.Lookup("heap"), filepath.Join(dir, "heap.pprof")))
}

// PProfAllocs 會在 exe() 後寫出「累積配置」(allocs) Profile，輸出 dir/allocs.pprof。
// 需要搭配 -alloc_space / -alloc_objects 指標查看。
func PProfAllocs(exe func() error, dir string) error {
	runErr := exe()
	return firstErr(runErr, writeProfile(pprof.Lookup("allocs"), filepath.Join(dir, "allocs.pprof")))
}

func writeProfile(prof *pprof.Profile, path string) error {
	if prof == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.WrapWithExtra(errs.NewFatal(err.Error()), "failed to create profile", path)
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.WrapWithExtra(errs.NewFatal(err.Error()), "failed to write profile", path)
	}
	return nil
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}
