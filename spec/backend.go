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

package spec

import (
	"strings"

	"github.com/zintix-labs/galaxis/errs"
)

// Backend : 三種可互換的產生策略
type Backend uint8

const (
	BackendScalar Backend = iota
	BackendVector
	BackendDevice
)

var backendNames = map[Backend]string{
	BackendScalar: "scalar",
	BackendVector: "vector",
	BackendDevice: "device",
}

func (b Backend) String() string {
	if s, ok := backendNames[b]; ok {
		return s
	}
	return "unknown"
}

// ParseBackend 解析 backend 名稱（不分大小寫）。
func ParseBackend(s string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for b, name := range backendNames {
		if name == key {
			return b, nil
		}
	}
	return 0, errs.Warnf("unknown backend %q (want scalar|vector|device)", s)
}

func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
