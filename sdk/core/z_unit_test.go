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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.Float32() != c2.Float32() {
		t.Fatalf("Float32 mismatch")
	}
	if c1.Int64() != c2.Int64() {
		t.Fatalf("Int64 mismatch")
	}
}

func TestFloat32Range(t *testing.T) {
	c := New(Default().New(3))
	buf := make([]float32, 4096)
	c.FillFloat32(buf)
	for i, v := range buf {
		if v < 0 || v >= 1 {
			t.Fatalf("value %d out of [0,1): %v", i, v)
		}
	}
}

func TestFillBoolBalanced(t *testing.T) {
	c := New(Default().New(5))
	buf := make([]bool, 100000)
	c.FillBool(buf)
	trues := 0
	for _, b := range buf {
		if b {
			trues++
		}
	}
	ratio := float64(trues) / float64(len(buf))
	if ratio < 0.49 || ratio > 0.51 {
		t.Fatalf("unbalanced sign bits: %.4f", ratio)
	}
}

func TestFillInt64Distinct(t *testing.T) {
	c := New(Default().New(9))
	seeds := make([]int64, 1000)
	c.FillInt64(seeds)
	sorted := slices.Clone(seeds)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(seeds) {
		t.Fatalf("expected distinct seeds")
	}
}

func TestSnapshotRestore(t *testing.T) {
	p := NewPCG64WithSeed(42)
	p.Uint64()
	snap, err := p.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := p.Uint64()
	q := NewPCG64WithSeed(0)
	if err := q.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := q.Uint64(); got != want {
		t.Fatalf("restore mismatch: %d != %d", got, want)
	}
}

func TestSeedMakerDeterministicNonNegative(t *testing.T) {
	a := NewSeedMaker(11)
	b := NewSeedMaker(11)
	for i := 0; i < 100; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("seed mismatch at %d", i)
		}
		if x < 0 {
			t.Fatalf("negative seed %d", x)
		}
	}
}
