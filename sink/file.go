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
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/galaxis/errs"
)

// Codec 檔案輸出的壓縮方式
type Codec uint8

const (
	Raw Codec = iota
	Gzip
	Zstd
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "raw"
	}
}

// Ext 回傳建議的副檔名。
func (c Codec) Ext() string {
	switch c {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw", "none":
		return Raw, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	}
	return Raw, errs.Warnf("unknown codec %q (want raw|gzip|zstd)", s)
}

type flushCloser interface {
	io.WriteCloser
	Flush() error
}

// File 為檔案 sink：bufio -> (壓縮器) -> *os.File。
type File struct {
	f  *os.File
	zw flushCloser
	bw *bufio.Writer
}

// Open 建立（覆寫）path 並回傳可寫入的 File。
func Open(path string, codec Codec) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "create output failed", path)
	}
	return wrapFile(f, codec)
}

func wrapFile(f *os.File, codec Codec) (*File, error) {
	fs := &File{f: f}
	var w io.Writer = f
	switch codec {
	case Gzip:
		zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
		if err != nil {
			f.Close()
			return nil, errs.Wrap(err, "gzip writer init failed")
		}
		fs.zw, w = zw, zw
	case Zstd:
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			f.Close()
			return nil, errs.Wrap(err, "zstd writer init failed")
		}
		fs.zw, w = zw, zw
	}
	fs.bw = bufio.NewWriterSize(w, 1<<20)
	return fs, nil
}

func (s *File) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

// Flush 把 bufio 內容推進壓縮器，並讓壓縮器吐出目前的 block。
func (s *File) Flush() error {
	if err := s.bw.Flush(); err != nil {
		return err
	}
	if s.zw != nil {
		return s.zw.Flush()
	}
	return nil
}

// Close 依序 Flush、關閉壓縮器、關閉檔案，回傳第一個錯誤。
func (s *File) Close() error {
	err := s.bw.Flush()
	if s.zw != nil {
		if cerr := s.zw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errs.Wrap(err, "close output failed")
	}
	return nil
}
