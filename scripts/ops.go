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

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Usage:
//
//	go run ./scripts test          # ok / FAIL 摘要
//	go run ./scripts test-detail   # verbose，過濾 [no test files]
//	go run ./scripts check         # 核對所有 demo 題目的預期答案
//	go run ./scripts example       # 以範例題目跑一次完整報表
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-all|test-detail|check|example]")
		os.Exit(1)
	}
	selectTask(os.Args[1])
}

func selectTask(task string) {
	switch task {
	case "test":
		cleanCache()
		PrintGreen("running tests")
		run(summaryOnly, "go", "test", "./...", "-cover", "-count=1")
	case "test-all":
		cleanCache()
		PrintGreen("running tests (all with coverage)")
		run(passThrough, "go", "test", "./...", "-cover")
	case "test-detail":
		cleanCache()
		PrintGreen("running tests (detail)")
		run(skipNoTestFiles, "go", "test", "./...", "-v", "-count=1")
	case "check":
		PrintGreen("checking demo cases")
		run(passThrough, "go", "run", "./cmd/check")
	case "example":
		run(passThrough, "go", "run", "./cmd/run", "-case", "example", "-blocks", "2022,1000000000000", "-pb")
	default:
		PrintYellow(fmt.Sprintf("Unknown task: %s", task))
		os.Exit(1)
	}
}

// lineFilter 決定每一行輸出如何顯示（或略過）。
type lineFilter func(line string)

// summaryOnly 等同 grep -E '^(ok|FAIL)'，但保留編譯錯誤
func summaryOnly(line string) {
	switch {
	case strings.HasPrefix(line, "ok"):
		PrintGreen(line)
	case strings.HasPrefix(line, "FAIL"):
		PrintRed(line)
	case strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
		PrintRed(line)
	}
}

// skipNoTestFiles 等同 grep -v '\[no test files\]'，ok / FAIL 上色
func skipNoTestFiles(line string) {
	switch {
	case strings.Contains(line, "[no test files]"):
	case strings.HasPrefix(line, "ok"):
		PrintGreen(line)
	case strings.HasPrefix(line, "FAIL"):
		PrintRed(line)
	default:
		fmt.Println(line)
	}
}

func passThrough(line string) {
	fmt.Println(line)
}

func cleanCache() {
	cmd := exec.Command("go", "clean", "-testcache")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
		os.Exit(1)
	}
}

// run 執行指令，stdout/stderr 合併（2>&1）後逐行交給 filter；指令失敗時以非零狀態結束。
func run(filter lineFilter, name string, args ...string) {
	cmd := exec.Command(name, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		PrintRed(fmt.Sprintf("failed to get stdout pipe: %v", err))
		os.Exit(1)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		PrintRed(fmt.Sprintf("error starting %s: %v", name, err))
		os.Exit(1)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		filter(sc.Text())
	}
	if err := sc.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}
	if err := cmd.Wait(); err != nil {
		PrintRed(fmt.Sprintf("\n%s %s finished with errors", name, strings.Join(args, " ")))
		os.Exit(1)
	}
}
