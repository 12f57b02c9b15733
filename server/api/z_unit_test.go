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

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/zintix-labs/galaxis/catalog"
	"github.com/zintix-labs/galaxis/server/api"
	v1 "github.com/zintix-labs/galaxis/server/api/v1"
	"github.com/zintix-labs/galaxis/server/netsvr"
	"github.com/zintix-labs/galaxis/server/svrcfg"
)

func newTestServer(t *testing.T) *netsvr.ChiAdapter {
	t.Helper()
	sCfg := &svrcfg.SvrCfg{
		Log:       slog.New(slog.DiscardHandler),
		MaxPoints: 5000,
	}
	if err := sCfg.Validate(); err != nil {
		t.Fatalf("validate cfg: %v", err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return svr
}

func TestGenerateStreamsPoints(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	cases := []struct {
		backend string
		points  int
	}{
		{"scalar", 1000},
		{"vector", 1000},
		{"device", 2000}, // unit preset: 2 iterations
	}
	for _, c := range cases {
		resp, err := http.Get(ts.URL + "/v1/generate?preset=unit&seed=7&backend=" + c.backend)
		if err != nil {
			t.Fatalf("%s: get: %v", c.backend, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("%s: read body: %v", c.backend, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d: %s", c.backend, resp.StatusCode, body)
		}
		if len(body) != c.points*12 {
			t.Fatalf("%s: body %d bytes, want %d", c.backend, len(body), c.points*12)
		}
		if got := resp.Header.Get(v1.HeaderSeed); got != "7" {
			t.Fatalf("%s: seed header %q", c.backend, got)
		}
		want := fmt.Sprintf("%016x", xxhash.Sum64(body))
		if got := resp.Trailer.Get(v1.HeaderDigest); got != want {
			t.Fatalf("%s: digest trailer %q, want %q", c.backend, got, want)
		}
		if resp.Trailer.Get(v1.HeaderRunID) == "" {
			t.Fatalf("%s: missing run id trailer", c.backend)
		}
	}
}

func TestGenerateReproducibleWithSeed(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	get := func() []byte {
		resp, err := http.Get(ts.URL + "/v1/generate?points=640&seed=99&backend=vector")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return b
	}
	a, b := get(), get()
	if len(a) != 640*12 || !bytes.Equal(a, b) {
		t.Fatalf("same seed should give identical streams (len %d / %d)", len(a), len(b))
	}
}

func TestGenerateBadParams(t *testing.T) {
	h := newTestServer(t).Handler()
	// MaxPoints = 5000；device 以 points x iterations 計
	cases := []string{
		"/v1/generate?points=abc",
		"/v1/generate?points=100&backend=gpu",
		"/v1/generate?points=10000",
		"/v1/generate?preset=unit&backend=device&points=3000",
		"/v1/generate?preset=nope",
		"/v1/generate?points=100&backend=vector",
		"/v1/generate?points=100&radial_rate=-1",
		"/v1/generate?points=100&seed=1.5",
	}
	for _, u := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400 (%s)", u, rec.Code, rec.Body.String())
		}
	}
}

func TestGeneratePostRejectsUnknownField(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"points":100,"colour":"red"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/generate", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestStatsCachedWithSeed(t *testing.T) {
	h := newTestServer(t).Handler()
	post := func() (*httptest.ResponseRecorder, v1.StatsResponse) {
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"preset":"unit","backend":"vector","seed":3}`)
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/stats", body))
		var out v1.StatsResponse
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		return rec, out
	}
	rec1, first := post()
	if first.Stats == nil || first.Stats.Points != 1000 || first.Stats.Backend != "vector" {
		t.Fatalf("unexpected stats %+v", first.Stats)
	}
	if rec1.Header().Get(v1.HeaderCache) != "miss" {
		t.Fatalf("first call should miss the cache")
	}
	rec2, second := post()
	if rec2.Header().Get(v1.HeaderCache) != "hit" {
		t.Fatalf("second call should hit the cache")
	}
	if second.Stats.Digest != first.Stats.Digest || second.Stats.Sum != first.Stats.Sum {
		t.Fatalf("cached report differs")
	}
}

func TestStatsWithoutSeedNotCached(t *testing.T) {
	h := newTestServer(t).Handler()
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats?points=500", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get(v1.HeaderCache) != "" {
			t.Fatalf("unseeded request must not use the cache")
		}
	}
}

func TestPresetsAndIndex(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/presets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("presets status %d", rec.Code)
	}
	var sums []catalog.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sums); err != nil {
		t.Fatalf("decode presets: %v", err)
	}
	names := map[string]bool{}
	for _, s := range sums {
		names[s.Name] = true
	}
	for _, want := range []string{"galaxy", "unit", "thin_disc"} {
		if !names[want] {
			t.Fatalf("missing preset %q in %v", want, names)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/v1/generate") {
		t.Fatalf("index: %d %q", rec.Code, rec.Body.String())
	}
}

func TestCompressionNegotiated(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/presets", nil)
	req.Header.Set("Accept-Encoding", "zstd")
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("expected zstd encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
}
