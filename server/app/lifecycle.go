// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import "context"

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
//   - Run() 阻塞到元件停止為止；回傳 http.ErrServerClosed 視為正常結束。
//   - Shutdown(ctx) 要求優雅關閉，實作方需尊重 ctx deadline/cancel。
//
// galaxis 目前唯一的實作為 netsvr 的 chi server，Shutdown 會等進行中的請求到 ctx 結束。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}
