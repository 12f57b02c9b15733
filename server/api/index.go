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

package api

import (
	"io"
	"net/http"
)

const indexText = `galaxis: exponential-disc point cloud generator

GET|POST /v1/generate  stream points (application/octet-stream, 3 x float32 per point)
GET|POST /v1/stats     run without output, return the statistics report (JSON)
GET      /v1/presets   list builtin presets

params: preset, backend (scalar|vector|device), points, seed,
        radial_rate, vertical_rate, group_size, iterations, chunk, remainder (strict|pad)
`

func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, indexText)
}
