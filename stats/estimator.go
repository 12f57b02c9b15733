package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// FitReport 分布檢定（Kolmogorov-Smirnov，單樣本）
//
// 三個 backend 的 z 都是 U[0,1) 的原始值，因此以 z 檢查亂數源是否健康；
// x / y 的分布依 backend 而異，不做檢定。
type FitReport struct {
	Samples    int     `json:"Samples"`
	ZUniformKS float64 `json:"ZUniformKS"` // sup|F_n - F|
	Critical   float64 `json:"Critical"`   // alpha = 0.01 的臨界值
	ZUniformOK bool    `json:"ZUniformOK"`
}

// ksAlpha01 為大樣本下 alpha = 0.01 的 KS 係數。
const ksAlpha01 = 1.628

// KSStatistic 回傳 sample 對 cdf 的單樣本 KS 距離。sample 會被排序。
func KSStatistic(sample []float64, cdf func(float64) float64) float64 {
	n := len(sample)
	if n == 0 {
		return 0
	}
	sort.Float64s(sample)
	fn := float64(n)
	d := 0.0
	for i, v := range sample {
		f := cdf(v)
		d = max(d, math.Abs(float64(i+1)/fn-f), math.Abs(f-float64(i)/fn))
	}
	return d
}

func fitUniform(head []float64) *FitReport {
	if len(head) == 0 {
		return nil
	}
	u := distuv.Uniform{Min: 0, Max: 1}
	sample := append([]float64(nil), head...)
	d := KSStatistic(sample, u.CDF)
	crit := ksAlpha01 / math.Sqrt(float64(len(sample)))
	return &FitReport{
		Samples:    len(sample),
		ZUniformKS: d,
		Critical:   crit,
		ZUniformOK: d <= crit,
	}
}
