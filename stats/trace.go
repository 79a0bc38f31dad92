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

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Trace 為逐顆模擬時的高度軌跡：第 i 筆代表落下 Blocks[i] 顆後塔高為 Heights[i]。
type Trace struct {
	Case      string   `json:"case"`
	Blocks    []uint64 `json:"blocks"`
	Heights   []uint64 `json:"heights"`
	Truncated bool     `json:"truncated"` // 超過上限後不再紀錄
}

func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Blocks)
}

// At 回傳第 i 筆樣本。
func (t *Trace) At(i int) (blocks, height uint64) {
	return t.Blocks[i], t.Heights[i]
}

type GrowthReport struct {
	Samples   int     `json:"Samples"`
	Slope     float64 `json:"Slope"`     // 高度對落石數的線性回歸斜率
	Intercept float64 `json:"Intercept"` // 線性回歸截距
	MeanGain  float64 `json:"MeanGain"`  // 相鄰樣本每顆平均增加高度
	GainStd   float64 `json:"GainStd"`
}

// Growth 以 gonum 對軌跡做線性回歸，並統計每顆石塊的高度增量。
// 樣本少於 2 筆時只回傳樣本數。
func (t *Trace) Growth() *GrowthReport {
	n := t.Len()
	g := &GrowthReport{Samples: n}
	if n < 2 {
		return g
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(t.Blocks[i])
		ys[i] = float64(t.Heights[i])
	}
	g.Intercept, g.Slope = stat.LinearRegression(xs, ys, nil, false)

	gains := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		db := float64(t.Blocks[i] - t.Blocks[i-1])
		if db <= 0 {
			continue
		}
		gains = append(gains, (ys[i]-ys[i-1])/db)
	}
	if len(gains) > 0 {
		g.MeanGain = stat.Mean(gains, nil)
	}
	if len(gains) > 1 {
		g.GainStd = stat.StdDev(gains, nil)
	}
	if math.IsNaN(g.Slope) {
		g.Slope = 0
	}
	return g
}
