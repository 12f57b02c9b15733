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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/galaxis/catalog"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/spec"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// GenerateRequest 為 /v1/generate 與 /v1/stats 共用的參數。
// 指標欄位為 nil 代表「沿用 preset（或預設設定）的值」。
type GenerateRequest struct {
	Preset       string   `json:"preset"`
	Backend      string   `json:"backend"`
	Points       *int     `json:"points,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	RadialRate   *float32 `json:"radial_rate,omitempty"`
	VerticalRate *float32 `json:"vertical_rate,omitempty"`
	GroupSize    *int     `json:"group_size,omitempty"`
	Iterations   *int     `json:"iterations,omitempty"`
	Chunk        *int     `json:"chunk,omitempty"`
	Remainder    string   `json:"remainder"`
}

// DecodeGenerateRequest 會把 HTTP 請求解碼成 GenerateRequest。
//
// 支援：
//   - GET：從 query string 讀取參數。
//   - POST：從 JSON body 反序列化（不允許未知欄位）。
//
// 這裡只負責解碼與基本型別轉換，合法性由 Resolve / spec.Validate 決定。
func DecodeGenerateRequest(r *http.Request) (*GenerateRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(GenerateRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Preset = q.Get("preset")
		req.Backend = q.Get("backend")
		req.Remainder = q.Get("remainder")

		var err error
		if req.Points, err = queryInt(q.Get("points"), "points"); err != nil {
			return nil, err
		}
		if req.GroupSize, err = queryInt(q.Get("group_size"), "group_size"); err != nil {
			return nil, err
		}
		if req.Iterations, err = queryInt(q.Get("iterations"), "iterations"); err != nil {
			return nil, err
		}
		if req.Chunk, err = queryInt(q.Get("chunk"), "chunk"); err != nil {
			return nil, err
		}
		if req.RadialRate, err = queryFloat(q.Get("radial_rate"), "radial_rate"); err != nil {
			return nil, err
		}
		if req.VerticalRate, err = queryFloat(q.Get("vertical_rate"), "vertical_rate"); err != nil {
			return nil, err
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = &v
		}
		return req, nil

	case http.MethodPost:
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil && err != io.EOF {
			return nil, errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

func queryInt(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", name, err))
	}
	return &v, nil
}

func queryFloat(s, name string) (*float32, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", name, err))
	}
	f := float32(v)
	return &f, nil
}

// Resolve 組出實際要跑的 backend 與設定：
// preset（或 spec.Default）為底、套上請求欄位、Validate，最後檢查點數上限。
// backend 未指定時為 scalar。
func (req *GenerateRequest) Resolve(cat *catalog.Catalog, maxPoints int) (spec.Backend, *spec.DiscSetting, error) {
	b := spec.BackendScalar
	if strings.TrimSpace(req.Backend) != "" {
		v, err := spec.ParseBackend(req.Backend)
		if err != nil {
			return b, nil, err
		}
		b = v
	}

	var ds *spec.DiscSetting
	if name := strings.TrimSpace(req.Preset); name != "" {
		if cat == nil {
			return b, nil, errs.NewWarn("presets are not available")
		}
		v, err := cat.Setting(name)
		if err != nil {
			return b, nil, err
		}
		ds = v
	} else {
		ds = spec.Default()
	}

	if req.Points != nil {
		ds.Points = *req.Points
	}
	if req.Seed != nil {
		s := *req.Seed
		ds.Seed = &s
	}
	if req.RadialRate != nil {
		ds.RadialRate = *req.RadialRate
	}
	if req.VerticalRate != nil {
		ds.VerticalRate = *req.VerticalRate
	}
	if req.GroupSize != nil {
		ds.GroupSize = *req.GroupSize
	}
	if req.Iterations != nil {
		ds.Iterations = *req.Iterations
	}
	if req.Chunk != nil {
		ds.Chunk = *req.Chunk
	}
	if req.Remainder != "" {
		ds.Remainder = req.Remainder
	}

	if err := ds.Validate(b); err != nil {
		return b, nil, err
	}
	// Validate 已保證 device 的 Points、Iterations > 0；先以除法比較，乘積才不會溢位
	if b == spec.BackendDevice && ds.Iterations > math.MaxInt/ds.Points {
		return b, nil, errs.Warnf("requested %d x %d points overflows", ds.Points, ds.Iterations)
	}
	if maxPoints > 0 {
		if ds.Points > maxPoints || (b == spec.BackendDevice && ds.Iterations > maxPoints/ds.Points) {
			return b, nil, errs.Warnf("requested %d points exceeds server limit %d", totalPoints(b, ds), maxPoints)
		}
	}
	return b, ds, nil
}
