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
	"log/slog"
	"strconv"

	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sdk/buf"
	"github.com/zintix-labs/galaxis/sdk/core"
	"github.com/zintix-labs/galaxis/sdk/dist"
	"github.com/zintix-labs/galaxis/sink"
)

// Stage pipeline 的狀態
type Stage uint8

const (
	StageSeed Stage = iota
	StageDispatch
	StageReadback
	StageWrite
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageSeed:
		return "seed"
	case StageDispatch:
		return "dispatch"
	case StageReadback:
		return "readback"
	case StageWrite:
		return "write"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Config 單次 pipeline 的幾何與參數。由呼叫端（spec.DiscSetting）驗證。
type Config struct {
	Points     int // 每個 iteration 的點數 N
	GroupSize  int
	Iterations int
	Rates      dist.Rates
	Kernel     string // 空字串代表 KernelGeneratePoints
}

// Hooks 觀察者；OnBatch 在 batch 成功寫出後於 write goroutine 呼叫。
// batch 只在呼叫期間有效，不可保留。
type Hooks struct {
	OnBatch func(iter int, batch []float32)
}

// slot 為雙緩衝的一格：host batch 與它自己的 encoder。
type slot struct {
	name  string
	batch buf.Flat
	enc   *sink.Encoder
}

// write 為進行中的寫出工作。
type write struct {
	slot *slot
	iter int
	done chan error
}

func (w *write) await() error {
	if w == nil {
		return nil
	}
	return <-w.done
}

// Pipeline SEED -> DISPATCH -> READBACK -> (WRITE ∥ DISPATCH_next) -> ... -> DONE
//
// 同一時間最多一個 write 與一個 dispatch/readback，兩者永遠不會落在同一個 slot。
type Pipeline struct {
	dev   Device
	cfg   Config
	core  *core.Core
	out   sink.Sink
	hooks Hooks
	log   *slog.Logger
	seeds []int64  // 每個 iteration 重新填滿，不讀舊值
	slots [2]*slot // slotA, slotB
}

// NewPipeline 建立 pipeline。rng 為 host 端產生 group seed 的亂數源。
func NewPipeline(dev Device, cfg Config, rng core.PRNG, out sink.Sink, hooks Hooks, log *slog.Logger) *Pipeline {
	if cfg.Kernel == "" {
		cfg.Kernel = KernelGeneratePoints
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		dev:   dev,
		cfg:   cfg,
		core:  core.New(rng),
		out:   out,
		hooks: hooks,
		log:   log,
	}
	for i, name := range [2]string{"slotA", "slotB"} {
		p.slots[i] = &slot{name: name, enc: sink.NewEncoder(out)}
	}
	return p
}

func stageErr(st Stage, iter int, cause error) error {
	return errs.WrapWithExtra(cause, "device pipeline "+st.String()+" failed", "iteration "+strconv.Itoa(iter))
}

// Run 跑完所有 iteration。任何裝置或寫出錯誤都直接中止（不重試），
// 但回傳前一定等待進行中的 write 結束。
func (p *Pipeline) Run(ctx context.Context) (err error) {
	cfg := p.cfg
	if cfg.Points <= 0 || cfg.GroupSize <= 0 || cfg.Iterations <= 0 || cfg.Points%cfg.GroupSize != 0 {
		return errs.Warnf("bad pipeline geometry: points=%d group=%d iterations=%d", cfg.Points, cfg.GroupSize, cfg.Iterations)
	}

	kern, err := p.dev.Kernel(cfg.Kernel)
	if err != nil {
		return stageErr(StageDispatch, 0, err)
	}

	groups := cfg.Points / cfg.GroupSize
	if len(p.seeds) != groups {
		p.seeds = make([]int64, groups)
	}
	for _, s := range p.slots {
		if s.batch.Len() != cfg.Points {
			s.batch = buf.NewFlat(cfg.Points)
		}
	}

	var pending *write
	defer func() {
		// 不論成功或失敗都要等最後一個 write
		if werr := pending.await(); werr != nil && err == nil {
			err = stageErr(StageWrite, pending.iter, werr)
		}
	}()

	for it := 0; it < cfg.Iterations; it++ {
		if cerr := ctx.Err(); cerr != nil {
			return errs.WrapWithExtra(cerr, "device pipeline canceled", "iteration "+strconv.Itoa(it))
		}
		s := p.slots[it%2]
		if pending != nil && pending.slot == s {
			w := pending
			pending = nil
			if werr := w.await(); werr != nil {
				return stageErr(StageWrite, w.iter, werr)
			}
		}

		if err := p.cycle(ctx, kern, s, it); err != nil {
			return err
		}

		// 只允許一個 write 在途：先等上一個，再送出這一個
		if pending != nil {
			w := pending
			pending = nil
			if werr := w.await(); werr != nil {
				return stageErr(StageWrite, w.iter, werr)
			}
		}
		pending = p.startWrite(s, it)
		p.log.Debug("device iteration dispatched", "iter", it, "slot", s.name)
	}

	w := pending
	pending = nil
	if werr := w.await(); werr != nil {
		return stageErr(StageWrite, w.iter, werr)
	}
	p.log.Debug("device pipeline done", "iterations", cfg.Iterations, "points", cfg.Points)
	return nil
}

// cycle 跑一次 SEED -> DISPATCH -> READBACK，結果落在 s.batch。
func (p *Pipeline) cycle(ctx context.Context, kern Kernel, s *slot, it int) error {
	p.core.FillInt64(p.seeds)
	seedBuf, err := p.dev.UploadSeeds(p.seeds)
	if err != nil {
		return stageErr(StageSeed, it, err)
	}
	defer p.dev.Release(seedBuf)

	result, err := p.dev.AllocResult(p.cfg.Points)
	if err != nil {
		return stageErr(StageDispatch, it, err)
	}
	defer p.dev.Release(result)

	ev, err := kern.Enqueue(ctx, Launch{
		Seeds:        seedBuf,
		Result:       result,
		RadialRate:   p.cfg.Rates.Radial,
		VerticalRate: p.cfg.Rates.Vertical,
		GlobalSize:   p.cfg.Points,
		GroupSize:    p.cfg.GroupSize,
	})
	if err != nil {
		return stageErr(StageDispatch, it, err)
	}
	if err := ev.Wait(); err != nil {
		return stageErr(StageDispatch, it, err)
	}
	if err := p.dev.Read(result, s.batch); err != nil {
		return stageErr(StageReadback, it, err)
	}
	s.batch.Guard()
	return nil
}

func (p *Pipeline) startWrite(s *slot, it int) *write {
	w := &write{slot: s, iter: it, done: make(chan error, 1)}
	go func() {
		err := s.enc.EncodeFlat(s.batch)
		if err == nil && p.hooks.OnBatch != nil {
			p.hooks.OnBatch(it, s.batch)
		}
		w.done <- err
	}()
	return w
}
