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

package rockfall

import (
	"fmt"
	"sync"

	"github.com/zintix-labs/rockfall/errs"
)

// Verdict 是一個題目目標的計算結果；Expected 為 nil 表示沒有已知答案。
type Verdict struct {
	Case     string  `json:"case"               yaml:"case"`
	Blocks   uint64  `json:"blocks"             yaml:"blocks"`
	Actual   uint64  `json:"actual"             yaml:"actual"`
	Expected *uint64 `json:"expected,omitempty" yaml:"expected,omitempty"`
	Err      error   `json:"-"                  yaml:"-"`
}

// Pass 回傳計算成功且（若有預期答案）與預期相符。
func (v Verdict) Pass() bool {
	if v.Err != nil {
		return false
	}
	return v.Expected == nil || *v.Expected == v.Actual
}

func (v Verdict) String() string {
	switch {
	case v.Err != nil:
		return fmt.Sprintf("%s n=%d: ERROR %v", v.Case, v.Blocks, v.Err)
	case v.Expected == nil:
		return fmt.Sprintf("%s n=%d: %d", v.Case, v.Blocks, v.Actual)
	case v.Pass():
		return fmt.Sprintf("%s n=%d: %d OK", v.Case, v.Blocks, v.Actual)
	default:
		return fmt.Sprintf("%s n=%d: %d EXPECTING %d", v.Case, v.Blocks, v.Actual, *v.Expected)
	}
}

// Check 依序計算題目的每個目標並核對預期答案。
func (l *Lab) Check(name string) ([]Verdict, error) {
	sim, err := l.NewSimulator(name)
	if err != nil {
		return nil, err
	}
	cs, err := l.Case(name)
	if err != nil {
		return nil, err
	}
	out := make([]Verdict, 0, len(cs.Targets))
	for _, t := range cs.Targets {
		h, err := sim.Height(t.Blocks)
		v := Verdict{Case: cs.Name, Blocks: t.Blocks, Actual: h, Expected: t.Expected, Err: err}
		if !v.Pass() {
			l.log.Warn("check failed", "verdict", v.String())
		}
		out = append(out, v)
	}
	return out, nil
}

// CheckAll 以 workers 個 goroutine 平行核對所有題目，結果依題目名稱排序。
// 單一題目的計算永遠在同一個 goroutine 內完成。
func (l *Lab) CheckAll(workers int) ([]Verdict, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	names := l.cat.Names()
	workers = max(1, min(workers, len(names)))

	res := make([][]Verdict, len(names))
	errList := make([]error, len(names))
	jobs := make(chan int, len(names))

	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				res[i], errList[i] = l.Check(names[i])
			}
		}()
	}
	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]Verdict, 0, len(names))
	for i := range names {
		if errList[i] != nil {
			return nil, errs.Wrap(errList[i], fmt.Sprintf("check case %s failed", names[i]))
		}
		out = append(out, res[i]...)
	}
	return out, nil
}
