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
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest 是透明的 Sink wrapper：寫出的同時對位元組串流做 xxhash64。
//
// 相同 seed 與設定應得到相同 digest，可以用來比對兩次輸出而不需要保留檔案。
type Digest struct {
	next Sink
	h    *xxhash.Digest
	n    int64
}

func NewDigest(next Sink) *Digest {
	return &Digest{next: next, h: xxhash.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	n, err := d.next.Write(p)
	// 只計入真正寫出的部分
	_, _ = d.h.Write(p[:n])
	d.n += int64(n)
	return n, err
}

func (d *Digest) Flush() error {
	return d.next.Flush()
}

func (d *Digest) Sum64() uint64 {
	return d.h.Sum64()
}

// Hex 回傳 16 位十六進位的 digest。
func (d *Digest) Hex() string {
	return fmt.Sprintf("%016x", d.h.Sum64())
}

// Bytes 回傳已寫出的位元組數。
func (d *Digest) Bytes() int64 {
	return d.n
}
