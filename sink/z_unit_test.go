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

package sink

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sdk/buf"
)

type countingSink struct {
	bytes.Buffer
	writes  int
	flushes int
}

func (c *countingSink) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func (c *countingSink) Flush() error {
	c.flushes++
	return nil
}

func TestEncodePointMajor(t *testing.T) {
	out := &countingSink{}
	enc := NewEncoder(out)
	pts := []buf.Point4{{1, 2, 3, 0}, {4, 5, 6, 0}}
	if err := enc.Encode4(pts); err != nil {
		t.Fatalf("encode4: %v", err)
	}
	if out.Len() != 2*RecordSize {
		t.Fatalf("padding lane must be dropped, got %d bytes", out.Len())
	}
	got := Decode(out.Bytes())
	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d: got %v want %v", i, got[i], want[i])
		}
	}
	if out.writes != 1 || out.flushes != 1 {
		t.Fatalf("expected one write+flush per batch, got %d/%d", out.writes, out.flushes)
	}
}

func TestEncodersAgree(t *testing.T) {
	var a, b, c bytes.Buffer
	wa, wb, wc := bufio.NewWriter(&a), bufio.NewWriter(&b), bufio.NewWriter(&c)
	if err := NewEncoder(wa).Encode3([]buf.Point3{{0.5, -0.25, 0.75}}); err != nil {
		t.Fatalf("encode3: %v", err)
	}
	if err := NewEncoder(wb).Encode4([]buf.Point4{{0.5, -0.25, 0.75, 0}}); err != nil {
		t.Fatalf("encode4: %v", err)
	}
	if err := NewEncoder(wc).EncodeFlat([]float32{0.5, -0.25, 0.75}); err != nil {
		t.Fatalf("encodeFlat: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) || !bytes.Equal(b.Bytes(), c.Bytes()) {
		t.Fatalf("encoders disagree")
	}
}

func TestEmptyBatchWritesNothing(t *testing.T) {
	out := &countingSink{}
	if err := NewEncoder(out).EncodeFlat(nil); err != nil {
		t.Fatalf("encode empty: %v", err)
	}
	if out.writes != 0 {
		t.Fatalf("empty batch must not write")
	}
}

func TestParseCodec(t *testing.T) {
	for in, want := range map[string]Codec{"": Raw, "raw": Raw, "GZIP": Gzip, "zst": Zstd} {
		got, err := ParseCodec(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v err %v", in, got, err)
		}
	}
	if _, err := ParseCodec("lz4"); !errs.Is(err, errs.Warn) {
		t.Fatalf("expected warn for unknown codec")
	}
}

func TestFileCodecRoundTrip(t *testing.T) {
	vals := make([]float32, 3*500)
	for i := range vals {
		vals[i] = float32(i) * 0.25
	}
	dir := t.TempDir()
	for _, codec := range []Codec{Raw, Gzip, Zstd} {
		path := filepath.Join(dir, "points"+codec.Ext())
		f, err := Open(path, codec)
		if err != nil {
			t.Fatalf("%s open: %v", codec, err)
		}
		enc := NewEncoder(f)
		if err := enc.EncodeFlat(vals[:600]); err != nil {
			t.Fatalf("%s encode: %v", codec, err)
		}
		if err := enc.EncodeFlat(vals[600:]); err != nil {
			t.Fatalf("%s encode: %v", codec, err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("%s close: %v", codec, err)
		}

		raw := readBack(t, path, codec)
		got := Decode(raw)
		if len(got) != len(vals) {
			t.Fatalf("%s: got %d values want %d", codec, len(got), len(vals))
		}
		for i := range vals {
			if got[i] != vals[i] {
				t.Fatalf("%s value %d: got %v want %v", codec, i, got[i], vals[i])
			}
		}
	}
}

func readBack(t *testing.T, path string, codec Codec) []byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var r io.Reader = f
	switch codec {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer zr.Close()
		r = zr
	case Zstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			t.Fatalf("zstd reader: %v", err)
		}
		defer zr.Close()
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestOpenMissingDirIsFatal(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", "p.bin"), Raw)
	if !errs.Is(err, errs.Fatal) {
		t.Fatalf("expected fatal, got %v", err)
	}
}

func TestDigestTracksStream(t *testing.T) {
	var a, b bytes.Buffer
	da := NewDigest(bufio.NewWriter(&a))
	db := NewDigest(bufio.NewWriter(&b))
	vals := []float32{1, 2, 3, 4, 5, 6}
	if err := NewEncoder(da).EncodeFlat(vals); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := NewEncoder(db).EncodeFlat(vals); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if da.Sum64() != db.Sum64() || len(da.Hex()) != 16 {
		t.Fatalf("same stream must give the same digest: %s vs %s", da.Hex(), db.Hex())
	}
	if da.Bytes() != int64(a.Len()) || a.Len() != 2*RecordSize {
		t.Fatalf("digest byte count %d, buffer %d", da.Bytes(), a.Len())
	}
	vals[0] = 9
	dc := NewDigest(Discard)
	if err := NewEncoder(dc).EncodeFlat(vals); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if dc.Sum64() == da.Sum64() {
		t.Fatalf("different stream should change the digest")
	}
}
