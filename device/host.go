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

package device

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/galaxis/errs"
	"golang.org/x/sync/errgroup"
)

// WorkGroup 是 kernel 看到的單一 work-group 視圖。
type WorkGroup struct {
	ID           int       // group 序號
	Seed         int64     // 該 group 的 host seed
	Offset       int       // 第一個點的全域序號
	Size         int       // 點數
	Out          []float32 // 3*Size，只屬於這個 group
	RadialRate   float32
	VerticalRate float32
}

// KernelFunc 以 work-group 為單位執行；不同 group 之間不共享可變狀態。
type KernelFunc func(g WorkGroup) error

// HostDevice 在行程內模擬計算裝置：buffer 是 host slice，kernel 依名稱註冊。
type HostDevice struct {
	mu      sync.RWMutex
	kernels map[string]KernelFunc
	workers int
	closed  atomic.Bool
}

type seedBuffer struct{ data []int64 }

func (b *seedBuffer) Len() int { return len(b.data) }

type resultBuffer struct{ data []float32 }

func (b *resultBuffer) Len() int { return len(b.data) }

// NewHostDevice 建立已註冊 generate_points 的 HostDevice。
// workers <= 0 時使用 GOMAXPROCS。
func NewHostDevice(workers int) *HostDevice {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &HostDevice{
		kernels: make(map[string]KernelFunc, 4),
		workers: workers,
	}
	d.RegisterKernel(KernelGeneratePoints, generatePoints)
	return d
}

// RegisterKernel 註冊（或覆寫）同名 kernel。
func (d *HostDevice) RegisterKernel(name string, fn KernelFunc) {
	d.mu.Lock()
	d.kernels[name] = fn
	d.mu.Unlock()
}

func (d *HostDevice) ensureOpen() error {
	if d.closed.Load() {
		return errs.NewFatal("device closed")
	}
	return nil
}

func (d *HostDevice) UploadSeeds(seeds []int64) (Buffer, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, errs.NewFatal("empty seed buffer")
	}
	cp := make([]int64, len(seeds))
	copy(cp, seeds)
	return &seedBuffer{data: cp}, nil
}

func (d *HostDevice) AllocResult(points int) (Buffer, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	if points <= 0 {
		return nil, errs.Fatalf("invalid result size %d", points)
	}
	return &resultBuffer{data: make([]float32, 3*points)}, nil
}

func (d *HostDevice) Kernel(name string) (Kernel, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	fn, ok := d.kernels[name]
	d.mu.RUnlock()
	if !ok {
		return nil, errs.Fatalf("kernel %q not found", name)
	}
	return &hostKernel{name: name, fn: fn, workers: d.workers}, nil
}

func (d *HostDevice) Read(src Buffer, dst []float32) error {
	rb, ok := src.(*resultBuffer)
	if !ok {
		return errs.NewFatal("read: not a result buffer")
	}
	if len(rb.data) != len(dst) {
		return errs.Fatalf("read: size mismatch %d != %d", len(rb.data), len(dst))
	}
	copy(dst, rb.data)
	return nil
}

func (d *HostDevice) Release(b Buffer) {
	switch v := b.(type) {
	case *seedBuffer:
		v.data = nil
	case *resultBuffer:
		v.data = nil
	}
}

func (d *HostDevice) Close() error {
	d.closed.Store(true)
	return nil
}

type hostKernel struct {
	name    string
	fn      KernelFunc
	workers int
}

func (k *hostKernel) Name() string { return k.name }

func (k *hostKernel) Enqueue(ctx context.Context, l Launch) (Event, error) {
	sb, ok := l.Seeds.(*seedBuffer)
	if !ok {
		return nil, errs.NewFatal("enqueue: seeds is not a seed buffer")
	}
	rb, ok := l.Result.(*resultBuffer)
	if !ok {
		return nil, errs.NewFatal("enqueue: result is not a result buffer")
	}
	if l.GroupSize <= 0 || l.GlobalSize <= 0 || l.GlobalSize%l.GroupSize != 0 {
		return nil, errs.Fatalf("enqueue: bad launch geometry %d/%d", l.GlobalSize, l.GroupSize)
	}
	groups := l.GlobalSize / l.GroupSize
	if len(sb.data) != groups {
		return nil, errs.Fatalf("enqueue: %d seeds for %d groups", len(sb.data), groups)
	}
	if len(rb.data) != 3*l.GlobalSize {
		return nil, errs.Fatalf("enqueue: result holds %d floats, want %d", len(rb.data), 3*l.GlobalSize)
	}

	ev := &hostEvent{done: make(chan struct{})}
	go func() {
		defer close(ev.done)
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(k.workers)
		for g := 0; g < groups; g++ {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				off := g * l.GroupSize
				return k.fn(WorkGroup{
					ID:           g,
					Seed:         sb.data[g],
					Offset:       off,
					Size:         l.GroupSize,
					Out:          rb.data[off*3 : (off+l.GroupSize)*3],
					RadialRate:   l.RadialRate,
					VerticalRate: l.VerticalRate,
				})
			})
		}
		if err := eg.Wait(); err != nil {
			ev.err = err
			return
		}
		ev.err = ctx.Err()
	}()
	return ev, nil
}

type hostEvent struct {
	done chan struct{}
	err  error
}

func (e *hostEvent) Wait() error {
	<-e.done
	return e.err
}
