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

package galaxis

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sink"
	"github.com/zintix-labs/galaxis/spec"
)

func setting(points int, remainder string, seed int64) *spec.DiscSetting {
	ds := spec.Default()
	ds.RadialRate, ds.VerticalRate = 1, 1
	ds.Points = points
	ds.Chunk = 256
	ds.GroupSize = 100
	ds.Iterations = 2
	ds.Remainder = remainder
	ds.Seed = &seed
	return ds
}

func runTo(t *testing.T, g *Galaxis, b spec.Backend) ([]float32, int) {
	t.Helper()
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	r, _, err := g.Run(context.Background(), b, w)
	if err != nil {
		t.Fatalf("%s run: %v", b, err)
	}
	return sink.Decode(out.Bytes()), r.Points
}

func TestEndToEndAllBackends(t *testing.T) {
	g, err := New(setting(1000, "pad", 3))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()

	for _, b := range []spec.Backend{spec.BackendScalar, spec.BackendVector, spec.BackendDevice} {
		vals, reported := runTo(t, g, b)
		want := 1000
		if b == spec.BackendDevice {
			want = 2000 // points per iteration x iterations
		}
		if len(vals) != want*3 || reported != want {
			t.Fatalf("%s: got %d values, report %d points, want %d points", b, len(vals), reported, want)
		}
		for i := 0; i < len(vals); i += 3 {
			x, y, z := vals[i], vals[i+1], vals[i+2]
			if z < 0 || z >= 1 {
				t.Fatalf("%s: z out of [0,1): %v", b, z)
			}
			if b != spec.BackendScalar && (x < -1 || x > 1 || y < -1 || y > 1) {
				t.Fatalf("%s: x/y out of [-1,1]: %v %v", b, x, y)
			}
		}
	}
}

func TestRunReproducibleWithSeed(t *testing.T) {
	run := func() []float32 {
		g, err := New(setting(640, "strict", 17))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		defer g.Close()
		vals, _ := runTo(t, g, spec.BackendVector)
		return vals
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mismatch at %d", i)
		}
	}
}

func TestRunDerivesFreshSeedPerRun(t *testing.T) {
	g, err := New(setting(640, "strict", 17))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()
	a, _ := runTo(t, g, spec.BackendScalar)
	b, _ := runTo(t, g, spec.BackendScalar)
	if a[0] == b[0] && a[1] == b[1] && a[2] == b[2] {
		t.Fatalf("two runs of one engine should not repeat the same stream")
	}
}

func TestRunRejectsBadSetting(t *testing.T) {
	g, err := New(setting(1000, "strict", 1))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()
	var out bytes.Buffer
	_, _, err = g.Run(context.Background(), spec.BackendVector, bufio.NewWriter(&out))
	if !errs.Is(err, errs.Warn) {
		t.Fatalf("expected configuration warn, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing may be written before validation passes")
	}
}

type brokenSink struct{}

var errBroken = errors.New("broken pipe")

func (brokenSink) Write([]byte) (int, error) { return 0, errBroken }
func (brokenSink) Flush() error              { return nil }

func TestRunWriteFailureIsFatal(t *testing.T) {
	g, err := New(setting(640, "strict", 1))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()
	for _, b := range []spec.Backend{spec.BackendScalar, spec.BackendVector, spec.BackendDevice} {
		_, _, err := g.Run(context.Background(), b, brokenSink{})
		if !errors.Is(err, errBroken) || !errs.Is(err, errs.Fatal) {
			t.Fatalf("%s: expected fatal write error, got %v", b, err)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	g, err := New(setting(640, "strict", 1))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = g.Run(ctx, spec.BackendVector, sink.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestReportMatchesStream(t *testing.T) {
	g, err := New(setting(512, "strict", 9))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer g.Close()
	var out bytes.Buffer
	r, _, err := g.Run(context.Background(), spec.BackendVector, bufio.NewWriter(&out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	vals := sink.Decode(out.Bytes())
	var sum float64
	for _, v := range vals {
		sum += float64(v)
	}
	if d := sum - r.Sum; d > 1e-6 || d < -1e-6 {
		t.Fatalf("report sum %v does not match stream sum %v", r.Sum, sum)
	}
}

func TestDigestReproducible(t *testing.T) {
	digest := func() (string, int64) {
		g, err := New(setting(1000, "pad", 23))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		defer g.Close()
		r, _, err := g.Run(context.Background(), spec.BackendDevice, sink.Discard)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if r.RunID == "" {
			t.Fatalf("run id missing")
		}
		return r.Digest, r.Seed
	}
	d1, s1 := digest()
	d2, s2 := digest()
	if d1 != d2 || s1 != s2 {
		t.Fatalf("same base seed must reproduce: %s/%d vs %s/%d", d1, s1, d2, s2)
	}
}
