package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/galaxis/sdk/perf"
)

// makefile runner
func main() {
	if err := bindVar(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := perf.RunPProf(execute, cfg.pprofmode, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
