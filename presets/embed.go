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

// Package presets 內建的 DiscSetting 預設組（go:embed）。
package presets

import (
	"embed"

	"github.com/zintix-labs/galaxis/catalog"
)

// FS provides embedded preset YAMLs for external usage.
//
//go:embed *.yaml
var FS embed.FS

// Default 預設使用的 preset 名稱
const Default = "galaxy"

// New 建立只含內建 preset、已凍結的 catalog。
func New() (*catalog.Catalog, error) {
	c, err := catalog.New(FS)
	if err != nil {
		return nil, err
	}
	if err := c.RegisterAll(); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}
