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

// Package v1 提供點雲產生的 HTTP API：串流輸出（generate）、統計報告（stats）與 preset 清單。
package v1

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zintix-labs/galaxis"
	"github.com/zintix-labs/galaxis/catalog"
	"github.com/zintix-labs/galaxis/device"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/server/httperr"
	"github.com/zintix-labs/galaxis/server/svrcfg"
	"github.com/zintix-labs/galaxis/sink"
	"github.com/zintix-labs/galaxis/spec"
	"github.com/zintix-labs/galaxis/stats"
)

const (
	HeaderSeed    = "X-Galaxis-Seed"
	HeaderBackend = "X-Galaxis-Backend"
	HeaderPoints  = "X-Galaxis-Points"
	HeaderRunID   = "X-Galaxis-Run-Id"
	HeaderDigest  = "X-Galaxis-Digest"
	HeaderCache   = "X-Galaxis-Cache"
)

// StatsResponse 為 /v1/stats 的回應。
type StatsResponse struct {
	Stats    *stats.Report `json:"stats"`
	UsedTime int64         `json:"used_ms"`
}

type Handler struct {
	log       *slog.Logger
	cat       *catalog.Catalog
	dev       device.Device
	maxPoints int
	cache     *expirable.LRU[string, StatsResponse]
}

// NewHandler 依 SvrCfg 建立 v1 handler；sCfg 需先通過 Validate。
func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Log == nil {
		return nil, errs.NewFatal("server config is required")
	}
	return &Handler{
		log:       sCfg.Log,
		cat:       sCfg.Catalog,
		dev:       sCfg.Device,
		maxPoints: sCfg.MaxPoints,
		cache:     expirable.NewLRU[string, StatsResponse](sCfg.CacheSize, nil, sCfg.CacheTTL),
	}, nil
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (spec.Backend, *spec.DiscSetting, bool) {
	req, err := DecodeGenerateRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return 0, nil, false
	}
	b, ds, err := req.Resolve(h.cat, h.maxPoints)
	if err != nil {
		httperr.Errs(w, err)
		return 0, nil, false
	}
	return b, ds, true
}

func (h *Handler) newGalaxis(ds *spec.DiscSetting) (*galaxis.Galaxis, error) {
	opts := []galaxis.Option{galaxis.WithLogger(h.log)}
	if h.dev != nil {
		opts = append(opts, galaxis.WithDevice(h.dev))
	}
	return galaxis.New(ds, opts...)
}

// Generate 串流輸出點雲：application/octet-stream，每點 3 個 native-endian float32。
// 摘要（xxhash64）與 run id 在串流結束後以 HTTP trailer 送出。
// 串流開始後的錯誤只能中斷連線並記 log。
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	b, ds, ok := h.resolve(w, r)
	if !ok {
		return
	}
	g, err := h.newGalaxis(ds)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer g.Close()

	hd := w.Header()
	hd.Set("Content-Type", "application/octet-stream")
	hd.Set(HeaderSeed, strconv.FormatInt(g.Seed(), 10))
	hd.Set(HeaderBackend, b.String())
	hd.Set(HeaderPoints, strconv.Itoa(totalPoints(b, ds)))
	hd.Set("Trailer", HeaderDigest+", "+HeaderRunID)

	out := newResponseSink(w)
	rep, _, err := g.Run(r.Context(), b, out)
	if err != nil {
		if out.written == 0 {
			hd.Del("Trailer")
			httperr.Errs(w, err)
			return
		}
		httperr.Log(h.log, "generate aborted mid-stream", err)
		return
	}
	hd.Set(HeaderDigest, rep.Digest)
	hd.Set(HeaderRunID, rep.RunID)
}

// Stats 產生點但丟棄輸出，只回傳 JSON 統計報告。
// 指定 seed 的請求結果可重現，會進入 LRU 快取。
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	b, ds, ok := h.resolve(w, r)
	if !ok {
		return
	}
	key := ""
	if ds.Seed != nil {
		key = cacheKey(b, ds)
		if resp, hit := h.cache.Get(key); hit {
			w.Header().Set(HeaderCache, "hit")
			writeJSON(w, h.log, resp)
			return
		}
	}
	g, err := h.newGalaxis(ds)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer g.Close()

	rep, used, err := g.Run(r.Context(), b, sink.Discard)
	if err != nil {
		httperr.Log(h.log, "stats run failed", err)
		httperr.Errs(w, err)
		return
	}
	resp := StatsResponse{Stats: rep, UsedTime: used.Milliseconds()}
	if key != "" {
		h.cache.Add(key, resp)
		w.Header().Set(HeaderCache, "miss")
	}
	writeJSON(w, h.log, resp)
}

// Presets 列出可用的 preset。
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	if h.cat == nil {
		writeJSON(w, h.log, []catalog.Summary{})
		return
	}
	sums, err := h.cat.Summaries()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, h.log, sums)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("write json response failed", slog.Any("err", err))
	}
}

func totalPoints(b spec.Backend, ds *spec.DiscSetting) int {
	if b == spec.BackendDevice {
		return ds.Points * ds.Iterations
	}
	return ds.Points
}

// cacheKey 以 backend 加上完整設定（canonical JSON）作為快取鍵。
func cacheKey(b spec.Backend, ds *spec.DiscSetting) string {
	raw, _ := json.Marshal(ds)
	return b.String() + "|" + string(raw)
}

// -----------------------------------------------------------------------------
//  sink
// -----------------------------------------------------------------------------

// responseSink 把 batch 寫進 bufio，Flush 時連同 http.Flusher 一起推出去。
type responseSink struct {
	bw      *bufio.Writer
	rc      *http.ResponseController
	written int64
}

func newResponseSink(w http.ResponseWriter) *responseSink {
	return &responseSink{
		bw: bufio.NewWriterSize(w, 1<<16),
		rc: http.NewResponseController(w),
	}
}

func (s *responseSink) Write(p []byte) (int, error) {
	n, err := s.bw.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *responseSink) Flush() error {
	if err := s.bw.Flush(); err != nil {
		return err
	}
	// 不支援 Flush 的 writer（例如部分測試替身）不視為錯誤
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

