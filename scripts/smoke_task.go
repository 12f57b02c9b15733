package main

import (
	"fmt"
	"os"
	"os/exec"
)

// runSmoke 以 unit preset 對每個 backend 各跑一次 cmd/run，確認 CLI 端到端可用。
func runSmoke() {
	for _, backend := range []string{"scalar", "vector", "device"} {
		PrintBlue(fmt.Sprintf("smoke: backend=%s", backend))
		cmd := exec.Command("go", "run", "./cmd/run",
			"-preset", "unit", "-backend", backend, "-seed", "1", "-q", "-report", "json")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			PrintRed(fmt.Sprintf("smoke %s failed: %v", backend, err))
			os.Exit(1)
		}
	}
	PrintGreen("smoke ok")
}
