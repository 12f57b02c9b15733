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

package v1

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/presets"
	"github.com/zintix-labs/galaxis/spec"
)

func TestDecodeQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/generate?backend=device&points=200&seed=-4&radial_rate=0.5&group_size=50&iterations=3&remainder=pad", nil)
	req, err := DecodeGenerateRequest(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Backend != "device" || *req.Points != 200 || *req.Seed != -4 || *req.RadialRate != 0.5 {
		t.Fatalf("unexpected request %+v", req)
	}
	if *req.GroupSize != 50 || *req.Iterations != 3 || req.Remainder != "pad" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.VerticalRate != nil || req.Chunk != nil {
		t.Fatalf("absent params must stay nil")
	}
}

func TestDecodeMethodNotAllowed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/v1/generate", strings.NewReader("{}"))
	if _, err := DecodeGenerateRequest(r); !errs.Is(err, errs.Warn) {
		t.Fatalf("expected warn, got %v", err)
	}
}

func TestDecodeEmptyPostBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(""))
	req, err := DecodeGenerateRequest(r)
	if err != nil || req.Points != nil {
		t.Fatalf("empty body should decode to zero request: %+v %v", req, err)
	}
}

func TestResolveOverridesPreset(t *testing.T) {
	cat, err := presets.New()
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	pts, seed := 640, int64(11)
	req := &GenerateRequest{Preset: "unit", Backend: "vector", Points: &pts, Seed: &seed}
	b, ds, err := req.Resolve(cat, 10_000)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if b != spec.BackendVector || ds.Points != 640 || *ds.Seed != 11 {
		t.Fatalf("unexpected resolve result %v %+v", b, ds)
	}
	if ds.RadialRate != 1 || ds.Chunk != 256 {
		t.Fatalf("preset fields should survive: %+v", ds)
	}
}

func TestResolveDefaultsToScalarAndCaps(t *testing.T) {
	req := &GenerateRequest{}
	if _, _, err := req.Resolve(nil, 1000); !errs.Is(err, errs.Warn) {
		t.Fatalf("default 1e8 points must exceed the cap: %v", err)
	}
	pts := 10
	req.Points = &pts
	b, _, err := req.Resolve(nil, 1000)
	if err != nil || b != spec.BackendScalar {
		t.Fatalf("expected scalar default, got %v %v", b, err)
	}
	req.Preset = "unit"
	if _, _, err := req.Resolve(nil, 1000); !errs.Is(err, errs.Warn) {
		t.Fatalf("preset without catalog should be a request error: %v", err)
	}
}

func TestResolveDeviceTotalCap(t *testing.T) {
	pts, group := 1<<20, 1<<20
	iters := math.MaxInt/pts + 1 // pts * iters 會溢位
	req := &GenerateRequest{Backend: "device", Points: &pts, GroupSize: &group, Iterations: &iters}
	for _, limit := range []int{0, 1 << 30, math.MaxInt} {
		if _, _, err := req.Resolve(nil, limit); !errs.Is(err, errs.Warn) {
			t.Fatalf("overflowing device total must be rejected under limit %d: %v", limit, err)
		}
	}

	pts, group, iters = 100, 100, 10
	if _, ds, err := req.Resolve(nil, 1000); err != nil || totalPoints(spec.BackendDevice, ds) != 1000 {
		t.Fatalf("total equal to the limit must pass: %v", err)
	}
	iters = 11
	if _, _, err := req.Resolve(nil, 1000); !errs.Is(err, errs.Warn) {
		t.Fatalf("total above the limit must be rejected: %v", err)
	}
}

func TestCacheKeyDependsOnBackendAndSetting(t *testing.T) {
	ds := spec.Default()
	a := cacheKey(spec.BackendScalar, ds)
	b := cacheKey(spec.BackendVector, ds)
	ds.Points = 64
	c := cacheKey(spec.BackendScalar, ds)
	if a == b || a == c {
		t.Fatalf("cache keys must differ: %q %q %q", a, b, c)
	}
}
