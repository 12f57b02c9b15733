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

// Package sink 負責把點雲 batch 序列化成 native-endian float32 串流。
//
// 格式：每點 3 個 float32（x, y, z），point-major，沒有 header。
// 核心只依賴 Write/Flush 兩個方法，檔案、HTTP、壓縮都由外部決定。
package sink

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/zintix-labs/galaxis/sdk/buf"
)

// RecordSize 為單點序列化後的 byte 數。
const RecordSize = buf.Dims * 4

// Sink 是核心唯一認得的輸出介面，*bufio.Writer 直接滿足。
type Sink interface {
	io.Writer
	Flush() error
}

// Encoder 持有可重用的 byte scratch，每個 batch 只呼叫一次 Write 與一次 Flush。
//
// Encoder 不是併發安全的；device pipeline 每個 slot 各自持有一個。
type Encoder struct {
	out     Sink
	scratch []byte
}

func NewEncoder(out Sink) *Encoder {
	return &Encoder{out: out}
}

func (e *Encoder) grow(n int) []byte {
	if cap(e.scratch) < n {
		e.scratch = make([]byte, n)
	}
	return e.scratch[:n]
}

// EncodeFlat 寫出 device 形式的平坦 batch（長度必須是 3 的倍數）。
func (e *Encoder) EncodeFlat(vals []float32) error {
	b := e.grow(len(vals) * 4)
	for i, v := range vals {
		binary.NativeEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return e.emit(b)
}

// Encode3 寫出 scalar backend 的 3-wide 記錄。
func (e *Encoder) Encode3(pts []buf.Point3) error {
	b := e.grow(len(pts) * RecordSize)
	off := 0
	for _, p := range pts {
		for k := 0; k < buf.Dims; k++ {
			binary.NativeEndian.PutUint32(b[off:], math.Float32bits(p[k]))
			off += 4
		}
	}
	return e.emit(b)
}

// Encode4 寫出 vector backend 的 4-wide 記錄，丟掉 padding lane。
func (e *Encoder) Encode4(pts []buf.Point4) error {
	b := e.grow(len(pts) * RecordSize)
	off := 0
	for _, p := range pts {
		for k := 0; k < buf.Dims; k++ {
			binary.NativeEndian.PutUint32(b[off:], math.Float32bits(p[k]))
			off += 4
		}
	}
	return e.emit(b)
}

func (e *Encoder) emit(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := e.out.Write(b); err != nil {
		return err
	}
	return e.out.Flush()
}

// Decode 把 native-endian float32 串流還原成平坦切片，供測試與工具使用。
func Decode(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Flush() error                { return nil }

// Discard 丟棄所有輸出（只需要統計時使用）。
var Discard Sink = discard{}
