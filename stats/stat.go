// Package stats 累積點雲的統計量（含全部座標總和的 sum check），並輸出報表。
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/galaxis/sdk/buf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
)

var lang language.Tag = language.English

// SampleCap 每個軸保留的前段樣本數（用於分位數與分布檢定）。
const SampleCap = 4096

var axisNames = [buf.Dims]string{"x", "y", "z"}

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// Report 點雲統計報告
type Report struct {
	RunID     string               `json:"RunID"`
	Backend   string               `json:"Backend"`
	Seed      int64                `json:"Seed"`
	Points    int                  `json:"Points"`
	NonFinite int                  `json:"NonFinite"`
	Sum       float64              `json:"Sum"` // 全部座標值總和
	Axis      [buf.Dims]AxisReport `json:"Axis"`
	Dist      *DistReport          `json:"Dist"`
	Fit       *FitReport           `json:"Fit"`
	Digest    string               `json:"Digest"` // 輸出串流的 xxhash64
}

// AxisReport 單一座標軸的統計
type AxisReport struct {
	Name   string  `json:"Name"`
	Mean   float64 `json:"Mean"`
	MeanCI CI      `json:"MeanCI"`
	Std    float64 `json:"Std"`
	Min    float64 `json:"Min"`
	Max    float64 `json:"Max"`
	P05    float64 `json:"P05"`
	P50    float64 `json:"P50"`
	P95    float64 `json:"P95"`
}

type axisAcc struct {
	n     int
	sum   float64
	sumSq float64
	min   float64
	max   float64
	head  []float64 // 前 SampleCap 個值
	hist  []int
}

func (a *axisAcc) add(v float64) {
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		a.min = min(a.min, v)
		a.max = max(a.max, v)
	}
	a.n++
	a.sum += v
	a.sumSq += v * v
	if len(a.head) < SampleCap {
		a.head = append(a.head, v)
	}
	a.hist[Buckets.Index(v)]++
}

func (a *axisAcc) merge(o *axisAcc) {
	if o.n == 0 {
		return
	}
	if a.n == 0 {
		a.min, a.max = o.min, o.max
	} else {
		a.min = min(a.min, o.min)
		a.max = max(a.max, o.max)
	}
	a.n += o.n
	a.sum += o.sum
	a.sumSq += o.sumSq
	if room := SampleCap - len(a.head); room > 0 {
		a.head = append(a.head, o.head[:min(room, len(o.head))]...)
	}
	for i := range a.hist {
		a.hist[i] += o.hist[i]
	}
}

// Accumulator 逐 batch 累積統計。不是併發安全的。
type Accumulator struct {
	backend   string
	points    int
	nonFinite int
	axes      [buf.Dims]axisAcc
}

func NewAccumulator(backend string) *Accumulator {
	a := &Accumulator{backend: backend}
	for i := range a.axes {
		a.axes[i].head = make([]float64, 0, SampleCap)
		a.axes[i].hist = make([]int, Buckets.Len())
	}
	return a
}

// Add 累積一個點；非有限值只計數，不進入任何統計量。
func (a *Accumulator) Add(x, y, z float32) {
	a.points++
	for k, v := range [buf.Dims]float32{x, y, z} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			a.nonFinite++
			continue
		}
		a.axes[k].add(f)
	}
}

// AddFlat 累積 device 形式的平坦 batch。
func (a *Accumulator) AddFlat(v []float32) {
	for i := 0; i+2 < len(v); i += 3 {
		a.Add(v[i], v[i+1], v[i+2])
	}
}

func (a *Accumulator) Add3(pts []buf.Point3) {
	for _, p := range pts {
		a.Add(p[0], p[1], p[2])
	}
}

func (a *Accumulator) Add4(pts []buf.Point4) {
	for _, p := range pts {
		a.Add(p[0], p[1], p[2])
	}
}

// Merge 併入另一個 accumulator（樣本只補到 SampleCap）。
func (a *Accumulator) Merge(o *Accumulator) {
	a.points += o.points
	a.nonFinite += o.nonFinite
	for i := range a.axes {
		a.axes[i].merge(&o.axes[i])
	}
}

func (a *Accumulator) Points() int {
	return a.points
}

// Report 計算最終統計結果。可以多次呼叫。
func (a *Accumulator) Report() *Report {
	r := &Report{
		Backend:   a.backend,
		Points:    a.points,
		NonFinite: a.nonFinite,
		Dist:      &DistReport{Bucket: Buckets.Labels()},
	}
	for k := range a.axes {
		ax := &a.axes[k]
		r.Sum += ax.sum
		r.Axis[k] = ax.report(axisNames[k])
	}
	r.Dist.X = append([]int(nil), a.axes[0].hist...)
	r.Dist.Y = append([]int(nil), a.axes[1].hist...)
	r.Dist.Z = append([]int(nil), a.axes[2].hist...)
	r.Fit = fitUniform(a.axes[2].head)
	return r
}

func (ax *axisAcc) report(name string) AxisReport {
	out := AxisReport{Name: name}
	if ax.n == 0 {
		return out
	}
	n := float64(ax.n)
	out.Mean = ax.sum / n
	out.Min, out.Max = ax.min, ax.max
	if ax.n > 1 {
		variance := (ax.sumSq - ax.sum*ax.sum/n) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out.Std = math.Sqrt(variance)
	}
	se := out.Std / math.Sqrt(n)
	out.MeanCI = CI{Lo: out.Mean - 1.96*se, Hi: out.Mean + 1.96*se}

	sorted := append([]float64(nil), ax.head...)
	sort.Float64s(sorted)
	out.P05 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	out.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	out.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return out
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	return rep.Write(w, r)
}

// StdOut 印出用時、吞吐量與統計表。
func (r *Report) StdOut(ut time.Duration) {
	formatDuration(ut, r.Points)
	keys, msg := r.fmtBasic()
	fmt.Println(fmtTable("galaxis "+r.Backend, keys, msg))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, points int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	pps := int(float64(points) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\npps : %d points/sec\n", sec, pps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\npps : %d points/sec\n", m, s, pps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\npps : %d points/sec\n", h, m, s, pps)
}

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Run ID":     r.RunID,
		"Backend":    r.Backend,
		"Seed":       fmt.Sprintf("%d", r.Seed),
		"Digest":     r.Digest,
		"Points":     p.Sprintf("%d", r.Points),
		"Non-finite": p.Sprintf("%d", r.NonFinite),
		"Sum":        p.Sprintf("%.4f", r.Sum),
	}
	keys := []string{"Run ID", "Backend", "Seed", "Points", "Non-finite", "Sum", "Digest"}
	for _, ax := range r.Axis {
		k := ax.Name + " mean/std"
		basic[k] = p.Sprintf("%.5f / %.5f", ax.Mean, ax.Std)
		keys = append(keys, k)
		k = ax.Name + " min/max"
		basic[k] = p.Sprintf("[%.5f, %.5f]", ax.Min, ax.Max)
		keys = append(keys, k)
		k = ax.Name + " p05/p50/p95"
		basic[k] = p.Sprintf("%.4f / %.4f / %.4f", ax.P05, ax.P50, ax.P95)
		keys = append(keys, k)
	}
	if r.Fit != nil {
		basic["z ~ U(0,1) KS"] = p.Sprintf("%.4f (n=%d, pass=%v)", r.Fit.ZUniformKS, r.Fit.Samples, r.Fit.ZUniformOK)
		keys = append(keys, "z ~ U(0,1) KS")
	}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
