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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

// App 是一個簡單的生命週期管理器，負責啟動所有註冊的 Component，
// 並在收到 OS 信號、ctx 結束或任一 Component 返回時，協調優雅關閉。
type App struct {
	comps   []Component
	timeout time.Duration
}

// New 建立一個新的 App 實例。
func New() *App { return &App{timeout: DefaultShutdownTimeout} }

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 將一個 Component 註冊到 App 中，該 Component 將在 Run 時被管理。
func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// SetShutdownTimeout 設定優雅關閉的期限（<= 0 時維持預設值）。
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

// Run 監聽 SIGINT/SIGTERM，等同 RunContext(context.Background())。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 並行啟動所有 Component，阻塞到 ctx 結束或任一 Component 的 Run 返回。
//   - ctx 結束：觸發優雅關閉並返回 nil，代表正常結束。
//   - Component 返回錯誤：觸發優雅關閉並返回該錯誤（http.ErrServerClosed 視為正常）。
//
// 假設每個 Component.Run 是阻塞調用，代表該元件的生命週期。
func (a *App) RunContext(ctx context.Context) error {
	if len(a.comps) == 0 {
		return nil
	}
	// errCh 用於收集任一 Component 首次返回的錯誤
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}
	return errors.Join(runErr, a.gracefulShutdown(a.timeout))
}

// gracefulShutdown 在給定的 timeout 內以註冊的反序呼叫所有 Component.Shutdown。
func (a *App) gracefulShutdown(td time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), td)
	defer cancel()
	var errList []error
	for i := len(a.comps) - 1; i >= 0; i-- {
		if err := a.comps[i].Shutdown(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
