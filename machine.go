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
	"github.com/zintix-labs/rockfall/sdk/chamber"
	"github.com/zintix-labs/rockfall/sdk/cycle"
	"github.com/zintix-labs/rockfall/sdk/fall"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/sdk/shape"
	"github.com/zintix-labs/rockfall/spec"
)

// Machine 是一次模擬的完整狀態：地形、落石引擎、氣流游標、下一顆石塊與已落石數。
//
// Machine 只能由單一 goroutine 使用；每次 Simulator 計算都建立一台新的 Machine。
type Machine struct {
	pattern *jet.Pattern
	chamber *chamber.Chamber
	engine  *fall.Engine
	cursor  uint64     // 下一次氣流在序列中的游標（單調遞增）
	next    shape.Kind // 下一顆要落下的石塊
	blocks  uint64     // 已靜止的石塊數
}

func newMachine(p *jet.Pattern, rs *spec.RunSetting) *Machine {
	c := chamber.New(rs.Capacity, !rs.NoCompact)
	return &Machine{
		pattern: p,
		chamber: c,
		engine:  fall.New(c, p),
		next:    shape.HBar,
	}
}

// Step 落下一顆石塊，回傳塔高增加的列數。
func (m *Machine) Step() uint64 {
	var grown uint64
	m.cursor, grown = m.engine.Drop(m.next, m.cursor)
	m.next = m.next.Next()
	m.blocks++
	return grown
}

// Key 回傳目前狀態的循環指紋，地形表面取頂端 depth 列。
func (m *Machine) Key(depth int) cycle.Key {
	return cycle.Key{
		Cursor:  m.pattern.Index(m.cursor),
		Shape:   m.next,
		Surface: string(m.chamber.Surface(depth)),
	}
}

// Record 回傳目前的（已落石數, 塔高）。
func (m *Machine) Record() cycle.Record {
	return cycle.Record{Blocks: m.blocks, Height: m.chamber.Height()}
}

func (m *Machine) Height() uint64            { return m.chamber.Height() }
func (m *Machine) Blocks() uint64            { return m.blocks }
func (m *Machine) Cursor() uint64            { return m.cursor }
func (m *Machine) Next() shape.Kind          { return m.next }
func (m *Machine) Steps() uint64             { return m.engine.Steps() }
func (m *Machine) Chamber() *chamber.Chamber { return m.chamber }
