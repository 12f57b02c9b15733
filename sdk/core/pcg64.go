// Package core implements the seeded random sources used by every backend.
//
// The PCG algorithm is designed by Melissa O'Neill; the generator itself is
// math/rand/v2's PCG, seeded through splitmix64 expansion.

package core

import (
	r2 "math/rand/v2"
)

// PCG64 亂數產生器
type PCG64 struct {
	rng *r2.PCG
}

// NewPCG64WithSeed 以指定 seed 建立新的 PCG64 實例。
//
// 單一 int64 seed 經 splitmix64 展開成 PCG 需要的 128-bit 狀態，
// 避免相鄰 seed（0,1,2...）產生相關的初始狀態。
func NewPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	return &PCG64{rng: r2.NewPCG(hi, lo)}
}

// Uint64 回傳 uint64 亂數
func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// Float64 產出 [0,1) 的 float64（53 bits 精度）
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()<<11>>11) / (1 << 53)
}

// Restore 恢復內部狀態
func (r *PCG64) Restore(data []byte) error {
	return r.rng.UnmarshalBinary(data)
}

// Snapshot 取得當下內部狀態
func (r *PCG64) Snapshot() ([]byte, error) {
	return r.rng.MarshalBinary()
}

// splitmix64 將輸入值混洗成新的 64-bit 狀態，用於種子展開。
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
