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

package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func payload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(bytes.Repeat([]byte("galaxis"), 100))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	_, _ = w.Write([]byte("tail"))
}

func TestAccessLogCountsBytes(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(payload)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/generate", nil))
	out := buf.String()
	if !strings.Contains(out, `"bytes":704`) || !strings.Contains(out, `"status":200`) {
		t.Fatalf("unexpected access log %s", out)
	}
	if !rec.Flushed {
		t.Fatalf("flush should pass through the recorder")
	}
}

func TestRecoverLogsPanicWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kernel trap") })
	h := RequestID(Recover(log)(boom))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/generate", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"http.panic"`) || !strings.Contains(out, `"panic":"kernel trap"`) {
		t.Fatalf("unexpected panic log %s", out)
	}
	if strings.Contains(out, `"req_id":""`) {
		t.Fatalf("panic log should carry the request id: %s", out)
	}
}

func TestRecoverRethrowsAbort(t *testing.T) {
	abort := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })
	h := Recover(slog.New(slog.DiscardHandler))(abort)
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestGetReqIdNumPart(t *testing.T) {
	var got, full string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		full, got = GetReqId(r), GetReqIdNumPart(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" || full == got || !strings.HasSuffix(full, "-"+got) {
		t.Fatalf("num part %q should be the suffix of %q", got, full)
	}
	if s := GetReqIdNumPart(httptest.NewRequest(http.MethodGet, "/", nil)); s != "" {
		t.Fatalf("request without id should give empty num part, got %q", s)
	}
}

func TestLevelByStatus(t *testing.T) {
	if levelByStatus(503) != slog.LevelError || levelByStatus(404) != slog.LevelWarn || levelByStatus(200) != slog.LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	want := append(bytes.Repeat([]byte("galaxis"), 100), "tail"...)
	for _, enc := range []string{"gzip", "zstd"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", enc)
		Compression(http.HandlerFunc(payload)).ServeHTTP(rec, req)
		if rec.Header().Get("Content-Encoding") != enc {
			t.Fatalf("%s: content-encoding %q", enc, rec.Header().Get("Content-Encoding"))
		}
		var rd io.Reader
		switch enc {
		case "gzip":
			zr, err := gzip.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("gzip reader: %v", err)
			}
			rd = zr
		case "zstd":
			zr, err := zstd.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("zstd reader: %v", err)
			}
			defer zr.Close()
			rd = zr
		}
		got, err := io.ReadAll(rd)
		if err != nil {
			t.Fatalf("%s: read: %v", enc, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("%s: payload mismatch (%d bytes)", enc, len(got))
		}
	}
}

func TestCompressionSkipsNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	h := Compress(CompressConfig{GzipLevel: 99, ZstdLevel: zstd.SpeedFastest})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("204 must have empty body, got %d bytes", rec.Body.Len())
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must not carry content-encoding")
	}
}
