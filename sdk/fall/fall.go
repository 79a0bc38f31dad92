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

// Package fall 驅動單顆石塊從生成到靜止。
package fall

import (
	"github.com/zintix-labs/rockfall/sdk/chamber"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/sdk/shape"
)

const (
	SpawnInset = 2 // 生成時距離左牆的欄數
	SpawnGap   = 3 // 生成時與目前最高點之間的空列數
)

// Engine 持有地形與氣流序列；游標與石塊索引由呼叫端傳入。
type Engine struct {
	chamber *chamber.Chamber
	pattern *jet.Pattern
	steps   uint64
}

func New(c *chamber.Chamber, p *jet.Pattern) *Engine {
	return &Engine{chamber: c, pattern: p}
}

// Drop 讓 kind 石塊落到靜止並寫入地形，回傳新的游標與塔高增加的列數。
//
// 每一步：先套用一次氣流（碰撞則不動），再套用一次重力（碰撞則靜止並 Commit）。
// Commit 之前對地形完全沒有副作用。
func (e *Engine) Drop(kind shape.Kind, cursor uint64) (uint64, uint64) {
	s := shape.Of(kind)
	c := e.chamber
	before := c.Height()

	x := SpawnInset
	y := int64(before) + SpawnGap
	for {
		var d jet.Dir
		d, cursor = e.pattern.Next(cursor)
		if nx := x + int(d); !c.Collides(s, nx, y) {
			x = nx
		}
		e.steps++
		if c.Collides(s, x, y-1) {
			break
		}
		y--
	}
	c.Commit(s, x, y)
	c.Compact()
	return cursor, c.Height() - before
}

// Steps 回傳累計執行的（氣流＋重力）步數。
func (e *Engine) Steps() uint64 {
	return e.steps
}

func (e *Engine) Chamber() *chamber.Chamber {
	return e.chamber
}
