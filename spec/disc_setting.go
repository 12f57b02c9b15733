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

// Package spec 定義點雲產生的設定（DiscSetting）與載入方式。
//
// 設定由外部提供、核心只讀：所有 backend 在建構時拿到一份明確的設定值，
// 不存在任何全域常數。
package spec

import (
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sdk/dist"
	"github.com/zintix-labs/galaxis/sdk/vector"
)

const (
	DefaultPoints     = 100_000_000
	DefaultGroupSize  = 100
	DefaultIterations = 10
	DefaultChunk      = 1 << 16
)

// DiscSetting 為一次產生所需的全部參數。
type DiscSetting struct {
	RadialRate   float32 `yaml:"radial_rate"    json:"radial_rate"`
	VerticalRate float32 `yaml:"vertical_rate"  json:"vertical_rate"`
	Points       int     `yaml:"points"         json:"points"`      // 總點數（device：每個 iteration 的點數）
	GroupSize    int     `yaml:"group_size"     json:"group_size"`  // device：每個 work-group 的點數（= 每個 seed 的點數）
	Iterations   int     `yaml:"iterations"     json:"iterations"`  // device：pipeline 重複次數
	Chunk        int     `yaml:"chunk"          json:"chunk"`       // scalar / vector：串流寫出的 batch 大小
	Remainder    string  `yaml:"remainder"      json:"remainder"`   // vector：strict | pad
	Seed         *int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Default 回傳預設設定（銀河尺度、1e8 點）。
func Default() *DiscSetting {
	return &DiscSetting{
		RadialRate:   dist.DefaultRates.Radial,
		VerticalRate: dist.DefaultRates.Vertical,
		Points:       DefaultPoints,
		GroupSize:    DefaultGroupSize,
		Iterations:   DefaultIterations,
		Chunk:        DefaultChunk,
		Remainder:    vector.Strict.String(),
	}
}

// Rates 以 dist.Rates 形式回傳兩個尺度參數。
func (ds *DiscSetting) Rates() dist.Rates {
	return dist.Rates{Radial: ds.RadialRate, Vertical: ds.VerticalRate}
}

// RemainderPolicy 解析 Remainder 欄位。
func (ds *DiscSetting) RemainderPolicy() (vector.Remainder, error) {
	return vector.ParseRemainder(ds.Remainder)
}

// ChunkPoints 回傳向上取整到 LaneWidth 倍數、且不超過 Points 的 batch 大小。
func (ds *DiscSetting) ChunkPoints() int {
	c := ds.Chunk
	if c <= 0 {
		c = DefaultChunk
	}
	if r := c % vector.LaneWidth; r != 0 {
		c += vector.LaneWidth - r
	}
	return min(c, ds.Points)
}

// Clone 回傳深拷貝。
func (ds *DiscSetting) Clone() *DiscSetting {
	c := *ds
	if ds.Seed != nil {
		s := *ds.Seed
		c.Seed = &s
	}
	return &c
}

// Validate 在任何取樣開始前檢查設定；所有錯誤皆為 errs.Warn（設定錯誤）。
func (ds *DiscSetting) Validate(b Backend) error {
	if err := ds.Rates().Validate(); err != nil {
		return err
	}
	if ds.Points <= 0 {
		return errs.Warnf("points must > 0, got %d", ds.Points)
	}
	if ds.Chunk < 0 {
		return errs.Warnf("chunk must >= 0, got %d", ds.Chunk)
	}
	rem, err := ds.RemainderPolicy()
	if err != nil {
		return err
	}

	switch b {
	case BackendScalar:
	case BackendVector:
		if rem == vector.Strict && ds.Points%vector.LaneWidth != 0 {
			return errs.Warnf("points %d is not a multiple of lane width %d (set remainder: pad to allow)", ds.Points, vector.LaneWidth)
		}
	case BackendDevice:
		if ds.GroupSize <= 0 {
			return errs.Warnf("group_size must > 0, got %d", ds.GroupSize)
		}
		if ds.Iterations <= 0 {
			return errs.Warnf("iterations must > 0, got %d", ds.Iterations)
		}
		if ds.Points%ds.GroupSize != 0 {
			return errs.Warnf("points %d is not a multiple of group_size %d", ds.Points, ds.GroupSize)
		}
	default:
		return errs.Warnf("unknown backend %d", b)
	}
	return nil
}
