package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zintix-labs/galaxis/device"
	"github.com/zintix-labs/galaxis/server"
	"github.com/zintix-labs/galaxis/server/logger"
	"github.com/zintix-labs/galaxis/server/netsvr"
	"github.com/zintix-labs/galaxis/server/svrcfg"
)

// galaxis HTTP server 入口。
// 所有請求共用同一個 HostDevice；點數上限與快取大小由 flag 決定。
func main() {
	cfg := new(config)
	sCfg, closeLog, err := cfg.loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog.Close()
	defer sCfg.Device.Close()

	svr := netsvr.NewChiServer(cfg.Addr, netsvr.WithWriteTimeout(cfg.WriteTimeout))
	server.RunWithSvr(sCfg, svr)
}

type config struct {
	Addr         string
	LogMode      string
	LogFile      string
	MaxPoints    int
	Workers      int
	CacheSize    int
	CacheTTL     time.Duration
	WriteTimeout time.Duration
}

func (cfg *config) loadConfigFromFlags() (*svrcfg.SvrCfg, io.Closer, error) {
	flag.StringVar(&cfg.Addr, "addr", ":5808", "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.LogFile, "log-file", "", "write logs to a rotating file instead of stdout/stderr")
	flag.IntVar(&cfg.MaxPoints, "max-points", svrcfg.DefaultMaxPoints, "max points per request")
	flag.IntVar(&cfg.Workers, "workers", 0, "host device workers (0 = GOMAXPROCS)")
	flag.IntVar(&cfg.CacheSize, "cache", svrcfg.DefaultCacheSize, "stats cache entries")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", svrcfg.DefaultCacheTTL, "stats cache ttl")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", 10*time.Minute, "http write timeout (0 = none)")

	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}

	var (
		log    *slog.Logger
		closer io.Closer
	)
	if cfg.LogFile != "" {
		log, closer, err = logger.NewFileAsync(4096, mode, logger.FileOptions{
			Path:       cfg.LogFile,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		})
		if err != nil {
			return nil, nil, err
		}
	} else {
		var ah *logger.AsyncHandler
		log, ah = logger.NewAsync(4096, mode)
		closer = closeFunc(ah.Close)
	}

	sCfg := &svrcfg.SvrCfg{
		Log:       log,
		MaxPoints: cfg.MaxPoints,
		Device:    device.NewHostDevice(cfg.Workers),
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}
	return sCfg, closer, nil
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}
