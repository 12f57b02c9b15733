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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/server/api"
	"github.com/zintix-labs/galaxis/server/app"
	"github.com/zintix-labs/galaxis/server/netsvr"
	"github.com/zintix-labs/galaxis/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（logger、點數上限、preset catalog）。
//  2. 在 addr 上建立 HTTP server（netsvr，空字串為 :5808）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run()，直到收到 SIGINT/SIGTERM。
//
// Run 不綁定任何檔案路徑或環境變數；所有依賴都透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg, addr string) {
	RunWithSvr(sCfg, netsvr.NewChiServer(addr))
}

// RunWithSvr 與 Run 相同，但允許呼叫端注入自訂的 NetSvr
// （自訂 timeout、listener，或把 galaxis 的路由掛到既有服務）。
//
//   - 驗證失敗時會額外把錯誤輸出到 stderr，避免「組裝失敗但無 log 可看」。
//   - svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Validate(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	addr := ""
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		if !s.Ready() {
			sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
			return
		}
		addr = s.Address()
	}

	// 註冊 Api
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	// 運行
	a := app.NewWith(svr)
	sCfg.Log.Info("[galaxis] listening", slog.String("addr", addr), slog.Int("max_points", sCfg.MaxPoints))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
}
