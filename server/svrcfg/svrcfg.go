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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/galaxis/catalog"
	"github.com/zintix-labs/galaxis/device"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/presets"
	"github.com/zintix-labs/galaxis/server/logger"
)

const (
	DefaultMaxPoints = 10_000_000
	DefaultCacheSize = 128
	DefaultCacheTTL  = 10 * time.Minute
)

type SvrCfg struct {
	Log       *slog.Logger
	MaxPoints int              // 單次請求的點數上限（device：points × iterations）
	Catalog   *catalog.Catalog // 可用的 preset；nil 時使用內建 presets
	Device    device.Device    // device backend 使用的裝置；nil 時每個請求各自建立 HostDevice
	CacheSize int              // /v1/stats 結果快取（僅限有指定 seed 的請求）
	CacheTTL  time.Duration
}

func (sc *SvrCfg) Validate() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	if sc.MaxPoints <= 0 {
		sc.MaxPoints = DefaultMaxPoints
	}
	// 0 < CacheSize <= 4096，for 資源管理
	if sc.CacheSize <= 0 {
		sc.CacheSize = DefaultCacheSize
	}
	sc.CacheSize = min(4096, sc.CacheSize)
	if sc.CacheTTL <= 0 {
		sc.CacheTTL = DefaultCacheTTL
	}
	if sc.Catalog == nil {
		c, err := presets.New()
		if err != nil {
			return errs.Wrap(err, "load builtin presets failed")
		}
		sc.Catalog = c
	}
	return nil
}
