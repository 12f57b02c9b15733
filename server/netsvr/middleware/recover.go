package middleware

import (
	"log/slog"
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// Recover 攔下 handler 的 panic 回 500，並以 access log 同一個 logger 記下 req_id。
// log 為 nil 時退回 chi 的 Recoverer（印 stack 到 stderr）。
//
// http.ErrAbortHandler 照舊往上拋，讓 net/http 中斷連線。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		return chimid.Recoverer
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.LogAttrs(
					r.Context(),
					slog.LevelError,
					"http.panic",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqIdNumPart(r)),
				)
				// 串流中途 panic 時 header 已送出，這裡只能中止 body
				w.WriteHeader(http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
