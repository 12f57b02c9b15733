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

package dist

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ScalarSampler 為 Scalar backend 的取樣器：直接從指數分布抽樣，不經過 cos / sin。
//
// distuv 的分布值在建立時就固定下來，熱路徑上不重新組裝。
type ScalarSampler struct {
	radial   distuv.Exponential
	vertical distuv.Exponential
	sign     distuv.Bernoulli
}

// NewScalarSampler 以 src 作為三個分布共用的亂數來源。
func NewScalarSampler(r Rates, src rand.Source) *ScalarSampler {
	return &ScalarSampler{
		radial:   distuv.Exponential{Rate: float64(r.Radial), Src: src},
		vertical: distuv.Exponential{Rate: float64(r.Vertical), Src: src},
		sign:     distuv.Bernoulli{P: 0.5, Src: src},
	}
}

// Radial 回傳 Exponential(radial rate) 的樣本。
func (s *ScalarSampler) Radial() float32 {
	return float32(s.radial.Rand())
}

// Height 回傳 Exponential(vertical rate) 的樣本，並以 0.5 機率取負號。
func (s *ScalarSampler) Height() float32 {
	v := float32(s.vertical.Rand())
	if s.sign.Rand() == 1 {
		return -v
	}
	return v
}

// ScalarRadialSample 單次版本，等同 NewScalarSampler(...).Radial()。
func ScalarRadialSample(src rand.Source, rate float32) float32 {
	return float32(distuv.Exponential{Rate: float64(rate), Src: src}.Rand())
}

// ScalarHeightSample 單次版本，等同 NewScalarSampler(...).Height()。
func ScalarHeightSample(src rand.Source, rate float32) float32 {
	v := float32(distuv.Exponential{Rate: float64(rate), Src: src}.Rand())
	if (distuv.Bernoulli{P: 0.5, Src: src}).Rand() == 1 {
		return -v
	}
	return v
}
