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

package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/galaxis/errs"
)

func TestParseLogMode(t *testing.T) {
	cases := map[string]LogMode{
		"dev":      ModeDev,
		"Prod":     ModeProd,
		"ModeProd": ModeProd,
		" silence": ModeSilence,
	}
	for in, want := range cases {
		got, err := ParseLogMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogMode("loud"); !errs.Is(err, errs.Warn) {
		t.Fatalf("expected warn for unknown mode, got %v", err)
	}
	if ModeProd.String() != "prod" {
		t.Fatalf("unexpected String %q", ModeProd.String())
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxis.log")
	log, closer, err := NewFileAsync(64, ModeProd, FileOptions{Path: path})
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	for i := 0; i < 10; i++ {
		log.Info("run done", slog.Int("i", i))
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if n := strings.Count(string(data), "run done"); n != 10 {
		t.Fatalf("expected 10 records after drain, got %d", n)
	}
}

func TestFileAsyncRequiresPath(t *testing.T) {
	if _, _, err := NewFileAsync(8, ModeDev, FileOptions{}); !errs.Is(err, errs.Warn) {
		t.Fatalf("expected warn, got %v", err)
	}
}

func TestAsyncHandlerAfterClose(t *testing.T) {
	ah := NewAsyncHandler(slog.DiscardHandler, 4)
	if !ah.Ready() {
		t.Fatalf("handler should be ready")
	}
	ah.Close()
	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "late", 0)
	_ = ah.Handle(context.Background(), r)
	if ah.Dropped() != 1 {
		t.Fatalf("record after close should be dropped, got %d", ah.Dropped())
	}
}
