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

// Package errs 提供 galaxis 統一的分級錯誤型別。
//
// 錯誤分類對應：
//   - Warn  : 設定錯誤（rate <= 0、點數為 0、lane 無法整除...），在取樣開始前就被拒絕。
//   - Fatal : 資源錯誤（device buffer / kernel / readback、storage 寫入），整次 run 中止。
//   - 數值域錯誤（ln(0) 造成的 NaN）不會走到這裡，一律在取樣點以 0.0 取代。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : 錯誤嚴重度，讓最上層（CLI / HTTP）決定如何回應。
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

func (lv ErrLevel) String() string {
	switch lv {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case Log:
		return "log"
	default:
		return ""
	}
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為附加上下文（例如 stage 名稱、iteration）；
// Cause 串接下層錯誤；ErrLv 為嚴重度。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", e.ErrLv, e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 可以向下展開。
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return New(Fatal, msg)
}

func NewWarn(msg string) *E {
	return New(Warn, msg)
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Wrap 以 msg 包裝 cause。
//
// 等級規則：
//   - cause 本身是 *E：沿用原等級（設定錯誤往上傳仍是設定錯誤）。
//   - 其他錯誤（標準庫、三方依賴、device）：一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	r := New(levelOf(cause), msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另外附帶上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

// AsErr 取出鏈上的第一個 *E。
func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is 判斷 err 鏈上第一個 *E 是否為指定等級。
func Is(err error, lv ErrLevel) bool {
	e, ok := AsErr(err)
	return ok && e.ErrLv == lv
}

func levelOf(cause error) ErrLevel {
	if e, ok := AsErr(cause); ok {
		return e.ErrLv
	}
	return Fatal
}
