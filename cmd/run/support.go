package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zintix-labs/galaxis"
	"github.com/zintix-labs/galaxis/device"
	"github.com/zintix-labs/galaxis/errs"
	"github.com/zintix-labs/galaxis/presets"
	"github.com/zintix-labs/galaxis/sdk/perf"
	"github.com/zintix-labs/galaxis/server/logger"
	"github.com/zintix-labs/galaxis/sink"
	"github.com/zintix-labs/galaxis/spec"
	"github.com/zintix-labs/galaxis/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	backend   string
	config    string
	preset    string
	points    int
	seed      int64
	seedSet   bool
	out       string
	codec     string
	workers   int
	report    string
	logMode   string
	quiet     bool
	pprofmode string
}

func bindVar() error {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.backend, "backend", "scalar", "backend: scalar|vector|device")
	flag.StringVar(&cfg.config, "config", "", "setting file (yaml or json)")
	flag.StringVar(&cfg.preset, "preset", "", "builtin preset name (ignored when -config is set)")
	flag.IntVar(&cfg.points, "points", 0, "override points (device: points per iteration)")
	flag.Int64Var(&cfg.seed, "seed", 0, "int64 seed (default: crypto random)")
	flag.StringVar(&cfg.out, "out", "", "output file; empty discards points, '-' writes to stdout")
	flag.StringVar(&cfg.codec, "codec", "raw", "output codec: raw|gzip|zstd")
	flag.IntVar(&cfg.workers, "workers", 0, "host device workers (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.report, "report", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.logMode, "log-mode", "silence", "log mode: dev|prod|silence")
	flag.BoolVar(&cfg.quiet, "q", false, "hide progress bar")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.seedSet = true
		}
	})
	return cfg.valid()
}

func (cfg *config) valid() error {
	if _, err := spec.ParseBackend(cfg.backend); err != nil {
		return err
	}
	if _, err := sink.ParseCodec(cfg.codec); err != nil {
		return err
	}
	if _, err := logger.ParseLogMode(cfg.logMode); err != nil {
		return err
	}
	if err := perf.ValidMode(cfg.pprofmode); err != nil {
		return err
	}
	switch cfg.report {
	case "table", "json", "yaml":
	default:
		return errs.Warnf("unknown report format %q (want table|json|yaml)", cfg.report)
	}
	if cfg.points < 0 {
		return errs.Warnf("points must >= 0, got %d", cfg.points)
	}
	return nil
}

// loadSetting 依 -config / -preset 取得設定，再套上命令列覆寫的欄位。
func (cfg *config) loadSetting() (*spec.DiscSetting, error) {
	var ds *spec.DiscSetting
	switch {
	case cfg.config != "":
		dir, name := filepath.Split(cfg.config)
		if dir == "" {
			dir = "."
		}
		v, err := spec.LoadDiscSetting(os.DirFS(dir), name)
		if err != nil {
			return nil, err
		}
		ds = v
	case cfg.preset != "":
		cat, err := presets.New()
		if err != nil {
			return nil, err
		}
		v, err := cat.Setting(cfg.preset)
		if err != nil {
			return nil, err
		}
		ds = v
	default:
		ds = spec.Default()
	}
	if cfg.points > 0 {
		ds.Points = cfg.points
	}
	if cfg.seedSet {
		s := cfg.seed
		ds.Seed = &s
	}
	return ds, nil
}

// openSink 回傳輸出端與收尾函數。
func (cfg *config) openSink() (sink.Sink, func() error, error) {
	switch cfg.out {
	case "":
		return sink.Discard, func() error { return nil }, nil
	case "-":
		bw := bufio.NewWriterSize(os.Stdout, 1<<20)
		return bw, bw.Flush, nil
	}
	codec, _ := sink.ParseCodec(cfg.codec)
	path := cfg.out
	if filepath.Ext(path) == "" {
		path += codec.Ext()
	}
	f, err := sink.Open(path, codec)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// 這裡解析並執行一次產生
func execute() error {
	b, _ := spec.ParseBackend(cfg.backend)
	mode, _ := logger.ParseLogMode(cfg.logMode)
	log, ah := logger.NewAsync(4096, mode)
	defer ah.Close()

	ds, err := cfg.loadSetting()
	if err != nil {
		return err
	}
	g, err := galaxis.New(ds,
		galaxis.WithLogger(log),
		galaxis.WithDevice(device.NewHostDevice(cfg.workers)),
		galaxis.WithProgress(!cfg.quiet),
	)
	if err != nil {
		return err
	}
	defer g.Close()

	out, closeOut, err := cfg.openSink()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.out != "-" {
		green := "\033[1;32m"
		reset := "\033[0m"
		p := message.NewPrinter(language.English)
		p.Printf("%s[BACKEND:%s] [POINTS:%d] [SEED:%d]%s\n", green, b, total(b, ds), g.Seed(), reset)
	}

	rep, used, runErr := g.Run(ctx, b, out)
	closeErr := closeOut()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return errs.Wrap(closeErr, "close output failed")
	}
	return cfg.printReport(rep, used)
}

// printReport 輸出報表；-out - 時 stdout 是資料流，報表改以 JSON 寫到 stderr。
func (cfg *config) printReport(rep *stats.Report, used time.Duration) error {
	if cfg.out == "-" {
		return rep.WriteWith(os.Stderr, &stats.JsonReportRender{})
	}
	switch cfg.report {
	case "json":
		return rep.WriteWith(os.Stdout, &stats.JsonReportRender{})
	case "yaml":
		return rep.WriteWith(os.Stdout, &stats.YAMLReportRender{})
	default:
		rep.StdOut(used)
		return nil
	}
}

func total(b spec.Backend, ds *spec.DiscSetting) int {
	if b == spec.BackendDevice {
		return ds.Points * ds.Iterations
	}
	return ds.Points
}
