package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// lineFilter 決定 go test 的每一行怎麼印；回傳 false 代表略過。
type lineFilter func(line string) bool

// cleanCache 對應 go clean -testcache；strict 時失敗就結束。
func cleanCache(strict bool) {
	cleanCmd := exec.Command("go", "clean", "-testcache")
	cleanCmd.Stdout = os.Stdout
	cleanCmd.Stderr = os.Stderr
	if err := cleanCmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
		if strict {
			os.Exit(1)
		}
	}
}

// goTestFiltered 執行 go test，把 stdout/stderr 合併（模擬 "2>&1"）後逐行交給 filter。
func goTestFiltered(title string, filter lineFilter, args ...string) {
	cmd := exec.Command("go", append([]string{"test"}, args...)...)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		PrintRed(fmt.Sprintf("failed to get stdout pipe: %v", err))
		os.Exit(1)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		PrintRed(fmt.Sprintf("Error starting go test: %v", err))
		os.Exit(1)
	}

	scanner := bufio.NewScanner(stdoutPipe)
	for scanner.Scan() {
		line := scanner.Text()
		if !filter(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"):
			PrintRed(line)
		default:
			fmt.Println(line)
		}
	}
	if err := scanner.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}

	// 等待 go test 結束，檢查 exit code
	if err := cmd.Wait(); err != nil {
		PrintRed(fmt.Sprintf("\n%s finished with errors\n", title))
		os.Exit(1)
	}
}

// summaryOnly 等同 grep -E '^(ok|FAIL)'，另外保留編譯失敗的關鍵字，不然看不出為什麼沒反應。
func summaryOnly(line string) bool {
	return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
		strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
}

// runTest: go test ./... -cover -count=1，只印 ok/FAIL
func runTest() {
	PrintGreen("running tests")
	cleanCache(false)
	goTestFiltered("Tests", summaryOnly, "./...", "-cover", "-count=1")
}

// runTestAll: go test -cover ./...，完整輸出
func runTestAll() {
	PrintGreen("running tests (all with coverage)")
	cleanCache(true)
	goTestFiltered("Tests (with coverage)", func(string) bool { return true }, "./...", "-cover")
}

// runTestDetail: verbose 測試，過濾掉 "[no test files]"
func runTestDetail() {
	PrintGreen("running tests (detail)")
	cleanCache(true)
	goTestFiltered("Tests (detail)", func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "./...", "-v", "-count=1")
}

// runRace: device pipeline 與 server 有跨 goroutine 的寫出，race detector 一起跑
func runRace() {
	PrintGreen("running tests (race)")
	goTestFiltered("Tests (race)", summaryOnly, "-race", "-count=1", "./device/...", "./server/...", ".")
}
