package stats

import "strconv"

// DistReport 各軸數值的分桶落點統計
type DistReport struct {
	Bucket []string `json:"Bucket"`
	X      []int    `json:"X"`
	Y      []int    `json:"Y"`
	Z      []int    `json:"Z"`
}

// ValueBuckets 固定寬度的分桶：(-inf,lo), [lo,lo+w), ..., [hi,+inf)
type ValueBuckets struct {
	lo     float64
	hi     float64
	width  float64
	bins   int
	labels []string
}

// Buckets
//
// 用來快速定位數值 -> DistReport 位置 O(1)
//
// 請勿修改預設值
//   - 區間: (-inf,-1), [-1,-0.8), ..., [0.8,1), [1,+inf)
var Buckets *ValueBuckets = newValueBuckets(-1, 1, 10)

func newValueBuckets(lo, hi float64, bins int) *ValueBuckets {
	b := &ValueBuckets{lo: lo, hi: hi, width: (hi - lo) / float64(bins), bins: bins}
	b.labels = make([]string, 0, bins+2)
	b.labels = append(b.labels, "(-inf,"+fmtEdge(lo)+")")
	for i := 0; i < bins; i++ {
		l := lo + float64(i)*b.width
		b.labels = append(b.labels, "["+fmtEdge(l)+","+fmtEdge(l+b.width)+")")
	}
	b.labels = append(b.labels, "["+fmtEdge(hi)+",+inf)")
	return b
}

func fmtEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Len 回傳分桶數（含兩側溢出桶）。
func (b *ValueBuckets) Len() int {
	return b.bins + 2
}

func (b *ValueBuckets) Labels() []string {
	return append([]string(nil), b.labels...)
}

func (b *ValueBuckets) Index(v float64) int {
	if v < b.lo {
		return 0
	}
	if v >= b.hi {
		return b.bins + 1
	}
	idx := int((v - b.lo) / b.width)
	if idx >= b.bins { // 浮點誤差
		idx = b.bins - 1
	}
	return idx + 1
}
