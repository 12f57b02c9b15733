package middleware

import (
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// RequestID 為每個請求掛上 chi 的 request id（host/prefix-流水號）。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(next)
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// GetReqIdNumPart 只取流水號，access log 與 panic log 用它對同一個請求。
func GetReqIdNumPart(r *http.Request) string {
	str := GetReqId(r)
	i := strings.LastIndexByte(str, '-')
	if i < 0 || i+1 >= len(str) {
		return str
	}
	return str[i+1:]
}
