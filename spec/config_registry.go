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
	"bytes"
	"encoding/json"
	"io"
	"io/fs"

	"github.com/zintix-labs/galaxis/errs"
	"gopkg.in/yaml.v3"
)

// GetDiscSettingByYAML
// 以 Default() 為底讀取 YAML（沒寫的欄位保留預設值），嚴格檢查欄位名稱後回傳。
// 驗證（Validate）需要 backend，由呼叫端決定何時執行。
func GetDiscSettingByYAML(data []byte) (*DiscSetting, error) {
	ds := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 多寫/拼錯欄位就報錯
	if err := dec.Decode(ds); err != nil && err != io.EOF {
		return nil, errs.Wrap(errs.NewWarn(err.Error()), "failed to unmarshal yaml")
	}
	return ds, nil
}

// GetDiscSettingByJSON
// 以 Default() 為底讀取 JSON，不允許未知欄位。
func GetDiscSettingByJSON(data []byte) (*DiscSetting, error) {
	ds := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ds); err != nil {
		return nil, errs.Wrap(errs.NewWarn(err.Error()), "can not unmarshal json")
	}
	return ds, nil
}

// LoadDiscSetting 從 fsys 讀取設定檔，依副檔名選擇 YAML 或 JSON。
func LoadDiscSetting(fsys fs.FS, name string) (*DiscSetting, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapWithExtra(errs.NewWarn(err.Error()), "read setting failed", name)
	}
	if isJSON(name) {
		return GetDiscSettingByJSON(data)
	}
	return GetDiscSettingByYAML(data)
}

func isJSON(name string) bool {
	return len(name) > 5 && name[len(name)-5:] == ".json"
}
