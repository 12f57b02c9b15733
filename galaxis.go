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

// Package galaxis 提供點雲產生引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 它把下列地基組裝在一起：
//  1. DiscSetting：分布參數與點數等設定（由 spec 載入，建構時注入，核心只讀）。
//  2. PRNGFactory：亂數核心工廠，保證同一個 seed 可重現（reproducible）。
//  3. Device：Device backend 使用的計算裝置；未指定時使用行程內的 HostDevice。
//
// 三種 backend（scalar / vector / device）共用同一個 Run 入口，輸出一律是
// native-endian float32 x3、point-major 的串流，寫到呼叫端提供的 sink.Sink。
//
// 典型使用：
//
//	g, _ := galaxis.New(setting, galaxis.WithProgress(true))
//	defer g.Close()
//	report, used, err := g.Run(ctx, spec.BackendVector, w)
package galaxis

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/galaxis/device"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/sdk/buf"
	"github.com/zintix-labs/galaxis/sdk/core"
	"github.com/zintix-labs/galaxis/sdk/scalar"
	"github.com/zintix-labs/galaxis/sdk/vector"
	"github.com/zintix-labs/galaxis/sink"
	"github.com/zintix-labs/galaxis/spec"
	"github.com/zintix-labs/galaxis/stats"
)

// Galaxis 組裝完成的引擎。Run 可以併發呼叫，每次 Run 各自持有 driver 與 PRNG。
type Galaxis struct {
	ds        *spec.DiscSetting // 建構時複製，之後只讀
	pf        core.PRNGFactory  // 亂數生成器工廠
	log       *slog.Logger
	dev       device.Device
	ownDev    bool // dev 由 New 建立，Close 時一併關閉
	progress  bool
	initSeed  int64           // 初始下的種子
	seedMaker *core.SeedMaker // 每次 Run 由此取得獨立的種子
}

// Option 設定 Galaxis 的可選元件。
type Option func(g *Galaxis)

// WithPRNG 替換亂數核心工廠（預設 core.Default()，PCG64）。
func WithPRNG(pf core.PRNGFactory) Option {
	return func(g *Galaxis) { g.pf = pf }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Galaxis) { g.log = l }
}

// WithDevice 指定 Device backend 的計算裝置，所有權仍屬於呼叫端。
func WithDevice(d device.Device) Option {
	return func(g *Galaxis) { g.dev = d }
}

// WithProgress 是否在 stderr 顯示進度條。
func WithProgress(show bool) Option {
	return func(g *Galaxis) { g.progress = show }
}

// New 建立 Galaxis。ds 為 nil 時使用 spec.Default()；ds.Seed 為 nil 時以 crypto/rand 取種子。
//
// 設定本身是否合法要等到 Run 知道 backend 後才驗證。
func New(ds *spec.DiscSetting, opts ...Option) (*Galaxis, error) {
	if ds == nil {
		ds = spec.Default()
	}
	g := &Galaxis{ds: ds.Clone()}
	for _, opt := range opts {
		opt(g)
	}
	if g.pf == nil {
		g.pf = core.Default()
	}
	if g.log == nil {
		g.log = slog.New(slog.DiscardHandler)
	}
	if g.dev == nil {
		g.dev = device.NewHostDevice(0)
		g.ownDev = true
	}
	if g.ds.Seed != nil {
		g.initSeed = *g.ds.Seed
	} else {
		seed, err := core.RandomSeed()
		if err != nil {
			return nil, errs.Wrap(err, "seed init failed")
		}
		g.initSeed = seed
	}
	g.seedMaker = core.NewSeedMaker(g.initSeed)
	return g, nil
}

// Seed 回傳初始種子（重現用）。
func (g *Galaxis) Seed() int64 {
	return g.initSeed
}

// Setting 回傳設定的複本。
func (g *Galaxis) Setting() *spec.DiscSetting {
	return g.ds.Clone()
}

func (g *Galaxis) Close() error {
	if g.ownDev {
		return g.dev.Close()
	}
	return nil
}

// Run 以指定 backend 產生全部點並串流寫入 out，回傳統計報告與用時。
//
//   - 設定錯誤（errs.Warn）在任何取樣前回傳。
//   - 寫出或裝置錯誤（errs.Fatal）立即中止，不重試。
//   - ctx 在 batch（scalar/vector）或 iteration（device）之間檢查。
func (g *Galaxis) Run(ctx context.Context, b spec.Backend, out sink.Sink) (*stats.Report, time.Duration, error) {
	if out == nil {
		return nil, 0, errs.NewWarn("sink required")
	}
	if err := g.ds.Validate(b); err != nil {
		return nil, 0, err
	}
	runID := uuid.NewString()
	seed := g.seedMaker.Next()
	rng := g.pf.New(seed)
	acc := stats.NewAccumulator(b.String())
	dg := sink.NewDigest(out)
	out = dg
	log := g.log.With("run_id", runID, "backend", b.String())
	log.Info("galaxis run start", "points", g.ds.Points, "seed", seed, "cpu", vector.DetectFeatures().String())

	start := time.Now()
	var err error
	switch b {
	case spec.BackendScalar:
		err = g.runScalar(ctx, rng, out, acc)
	case spec.BackendVector:
		err = g.runVector(ctx, rng, out, acc)
	case spec.BackendDevice:
		err = g.runDevice(ctx, rng, out, acc)
	}
	used := time.Since(start)
	if err != nil {
		log.Error("galaxis run failed", "err", err, "bytes", dg.Bytes())
		return nil, used, err
	}
	r := acc.Report()
	r.RunID, r.Seed, r.Digest = runID, seed, dg.Hex()
	log.Info("galaxis run done", "points", r.Points, "bytes", dg.Bytes(), "digest", r.Digest, "used", used)
	return r, used, nil
}

func (g *Galaxis) newBar(total int) *pb.ProgressBar {
	bar := pb.New(total)
	if !g.progress {
		bar.SetWriter(io.Discard)
	}
	return bar.Start()
}

func canceled(ctx context.Context, done int) error {
	if err := ctx.Err(); err != nil {
		return errs.WrapWithExtra(err, "run canceled", "points written: "+strconv.Itoa(done))
	}
	return nil
}

func (g *Galaxis) runScalar(ctx context.Context, rng core.PRNG, out sink.Sink, acc *stats.Accumulator) error {
	n := g.ds.Points
	d := scalar.New(g.ds.Rates(), rng)
	enc := sink.NewEncoder(out)
	batch := make([]buf.Point3, g.ds.ChunkPoints())

	bar := g.newBar(n)
	defer bar.Finish()
	for done := 0; done < n; {
		if err := canceled(ctx, done); err != nil {
			return err
		}
		m := min(len(batch), n-done)
		d.Fill(batch[:m])
		if err := enc.Encode3(batch[:m]); err != nil {
			return errs.Wrap(err, "scalar write failed")
		}
		acc.Add3(batch[:m])
		bar.Add(m)
		done += m
	}
	return nil
}

func (g *Galaxis) runVector(ctx context.Context, rng core.PRNG, out sink.Sink, acc *stats.Accumulator) error {
	n := g.ds.Points
	d := vector.New(g.ds.Rates(), rng)
	enc := sink.NewEncoder(out)
	// 非最後一段永遠是 LaneWidth 的倍數；Strict 時最後一段也是（已由 Validate 保證）
	size := g.ds.ChunkPoints()
	if r := size % vector.LaneWidth; r != 0 {
		size += vector.LaneWidth - r
	}
	batch := make([]buf.Point4, size)

	bar := g.newBar(n)
	defer bar.Finish()
	for done := 0; done < n; {
		if err := canceled(ctx, done); err != nil {
			return err
		}
		m := min(len(batch), n-done)
		d.FillPadded(batch[:m])
		if err := enc.Encode4(batch[:m]); err != nil {
			return errs.Wrap(err, "vector write failed")
		}
		acc.Add4(batch[:m])
		bar.Add(m)
		done += m
	}
	return nil
}

func (g *Galaxis) runDevice(ctx context.Context, rng core.PRNG, out sink.Sink, acc *stats.Accumulator) error {
	ds := g.ds
	bar := g.newBar(ds.Points * ds.Iterations)
	defer bar.Finish()
	hooks := device.Hooks{
		// write stage 一次只有一個在途，acc 不會被併發寫入
		OnBatch: func(_ int, batch []float32) {
			acc.AddFlat(batch)
			bar.Add(len(batch) / buf.Dims)
		},
	}
	cfg := device.Config{
		Points:     ds.Points,
		GroupSize:  ds.GroupSize,
		Iterations: ds.Iterations,
		Rates:      ds.Rates(),
	}
	return device.NewPipeline(g.dev, cfg, rng, out, hooks, g.log).Run(ctx)
}
