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

// Package catalog 管理具名的 DiscSetting 預設組（preset）。
//
// 設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS），catalog 只依賴檔名。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/spec"
)

var (
	ErrDupName   = errs.NewFatal("duplicate preset name")
	ErrNotFound  = errs.NewWarn("preset not found")
	ErrFrozen    = errs.NewWarn("can not register when catalog already frozen")
	ErrNoSources = errs.NewFatal("no fs provided")
)

type Entry struct {
	Name       string `json:"name"`
	ConfigName string `json:"config"`
	Note       string `json:"note,omitempty"`
}

// Summary 對外展示用（例如 GET /v1/presets）。
type Summary struct {
	Name         string  `json:"name"`
	Note         string  `json:"note,omitempty"`
	Points       int     `json:"points"`
	RadialRate   float32 `json:"radial_rate"`
	VerticalRate float32 `json:"vertical_rate"`
	GroupSize    int     `json:"group_size"`
	Iterations   int     `json:"iterations"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組 preset，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register 一次註冊多筆；任一筆不合法就全部不生效。
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range ents {
		e := &ents[i]
		e.Name = normName(e.Name)
		if e.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(e.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[e.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", e.ConfigName))
		}
		if _, ok := c.byName[e.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[e.Name]; ok {
			return ErrDupName
		}
		_, dupOld := c.unique[e.ConfigName]
		_, dupNew := seenCfg[e.ConfigName]
		if dupOld || dupNew {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", e.ConfigName))
		}
		seenName[e.Name] = struct{}{}
		seenCfg[e.ConfigName] = struct{}{}
	}
	for _, e := range ents {
		c.unique[e.ConfigName] = struct{}{}
		c.byName[e.Name] = e
		c.names = append(c.names, e.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll 把所有來源中的設定檔以「檔名去掉副檔名」註冊成 preset。
func (c *Catalog) RegisterAll() error {
	files := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		if _, ok := c.unique[name]; !ok {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	ents := make([]Entry, 0, len(files))
	for _, f := range files {
		ents = append(ents, Entry{Name: strings.TrimSuffix(f, filepath.Ext(f)), ConfigName: f})
	}
	return c.Register(ents...)
}

func (c *Catalog) Get(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.byName[n])
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// Setting
//
// 讀取 fs 中的 YAML/JSON 設定（嚴格欄位檢查），回傳一份新的 DiscSetting。
// 驗證需要 backend，由呼叫端處理。
func (c *Catalog) Setting(name string) (*spec.DiscSetting, error) {
	e, ok := c.Get(name)
	if !ok {
		return nil, errs.WrapWithExtra(ErrNotFound, "catalog lookup failed", name)
	}
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	return spec.LoadDiscSetting(src, e.ConfigName)
}

// Summaries 回傳全部 preset 的摘要；任何一個設定檔壞掉就回錯。
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.All() {
		ds, err := c.Setting(e.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Name:         e.Name,
			Note:         e.Note,
			Points:       ds.Points,
			RadialRate:   ds.RadialRate,
			VerticalRate: ds.VerticalRate,
			GroupSize:    ds.GroupSize,
			Iterations:   ds.Iterations,
		})
	}
	return out, nil
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\ :)", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// multiFS 把多個扁平的設定來源合併成一個索引：檔名 -> 來源。
type multiFS struct {
	src   []fs.FS
	index map[string]int
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, ErrNoSources
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}
	m := &multiFS{src: src, index: make(map[string]int, 32)}

	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 其他檔案（例如 embed.go）忽略
			if !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}
