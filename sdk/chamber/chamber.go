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

// Package chamber 保存已靜止的地形（settled terrain）。
//
// 邏輯上是一條由地板（row 0）往上無限延伸的列序列；實體上是一個環狀緩衝區（circular buffer）
// 加上 base 偏移與 removed 累加器：永遠碰不到的底部列會被丟棄，不需要搬移其餘資料。
//
// 座標：
//   - 絕對列號 y 以 int64 表示，地板為 row 0。
//   - y < 0 或 y < removed 的列一律視為實心（solid）。
//   - y >= removed+n 的列為空列。
package chamber

import (
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/sdk/shape"
)

const minCapacity = 16

// Chamber 非併發安全，由單一模擬流程獨佔。
type Chamber struct {
	rows    []shape.Row // 環狀緩衝，長度恆為 2 的冪次
	reach   []shape.Row // 與 rows 同索引：每列可由上方到達的空格（Compact 快取）
	mask    int
	base    int    // 最低一列（絕對列號 removed）在 rows 內的實體位置
	n       int    // 存活列數；最高存活列必定有佔用格
	removed uint64 // 已丟棄的列數
	compact bool
	peak    int // 歷史最大存活列數
	grown   int // 緩衝擴容次數

	// 自上次 Compact 之後被 Commit 改動過的存活列範圍（local 索引），dirtyHi < 0 表示沒有
	dirtyLo int
	dirtyHi int
	scanned uint64 // Compact 累計重算的列數
}

// New 建立空的 Chamber。capacity 會向上取到 2 的冪次（最小 16）。
// compact=false 時 Compact 不做事，緩衝會隨高度無限成長（只用於驗證）。
func New(capacity int, compact bool) *Chamber {
	size := minCapacity
	for size < capacity {
		size <<= 1
	}
	return &Chamber{
		rows:    make([]shape.Row, size),
		reach:   make([]shape.Row, size),
		mask:    size - 1,
		compact: compact,
		dirtyHi: -1,
	}
}

func (c *Chamber) at(local int) shape.Row {
	return c.rows[(c.base+local)&c.mask]
}

func (c *Chamber) set(local int, r shape.Row) {
	c.rows[(c.base+local)&c.mask] = r
}

// Row 回傳絕對列號 y 的內容。
func (c *Chamber) Row(y int64) shape.Row {
	if y < 0 {
		return shape.FullRow
	}
	local := y - int64(c.removed)
	switch {
	case local < 0:
		return shape.FullRow
	case local >= int64(c.n):
		return shape.EmptyRow
	default:
		return c.at(int(local))
	}
}

// Collides 判斷石塊 s 以水平位移 x、底列 y 擺放時是否與井壁、地板或地形重疊。
func (c *Chamber) Collides(s shape.Shape, x int, y int64) bool {
	if !s.Fits(x) {
		return true
	}
	for i := 0; i < s.Height; i++ {
		if s.Shift(i, x)&c.Row(y+int64(i)) != 0 {
			return true
		}
	}
	return false
}

// Commit 把靜止的石塊寫入地形，需要時往上配置新列。
//
// 寫入與既有地形重疊、或寫入已丟棄/地板以下的列，代表碰撞數學有 bug：直接 panic（errs.ErrInvariant）。
func (c *Chamber) Commit(s shape.Shape, x int, y int64) {
	if !s.Fits(x) {
		panic(errs.Invariantf("commit %s outside shaft: x=%d width=%d", s.Kind, x, s.Width))
	}
	if y < int64(c.removed) {
		panic(errs.Invariantf("commit %s below live window: y=%d removed=%d", s.Kind, y, c.removed))
	}
	for i := 0; i < s.Height; i++ {
		local := int(y-int64(c.removed)) + i
		for local >= c.n {
			c.push(shape.EmptyRow)
		}
		cur := c.at(local)
		add := s.Shift(i, x)
		if cur&add != 0 {
			panic(errs.Invariantf("commit %s overlaps terrain: row=%d x=%d terrain=%07b shape=%07b",
				s.Kind, y+int64(i), x, cur, add))
		}
		c.set(local, cur|add)
	}
	c.markDirty(int(y-int64(c.removed)), int(y-int64(c.removed))+s.Height-1)
}

func (c *Chamber) markDirty(lo, hi int) {
	if c.dirtyHi < 0 {
		c.dirtyLo, c.dirtyHi = lo, hi
		return
	}
	c.dirtyLo = min(c.dirtyLo, lo)
	c.dirtyHi = max(c.dirtyHi, hi)
}

func (c *Chamber) push(r shape.Row) {
	if c.n == len(c.rows) {
		c.grow()
	}
	c.set(c.n, r)
	c.n++
	if c.n > c.peak {
		c.peak = c.n
	}
}

// grow 容量加倍並把存活列依序搬到新緩衝的開頭。
func (c *Chamber) grow() {
	next := make([]shape.Row, len(c.rows)*2)
	reach := make([]shape.Row, len(next))
	for i := 0; i < c.n; i++ {
		p := (c.base + i) & c.mask
		next[i] = c.rows[p]
		reach[i] = c.reach[p]
	}
	c.rows = next
	c.reach = reach
	c.mask = len(next) - 1
	c.base = 0
	c.grown++
}

// Height 回傳塔高：removed + 存活列數。
func (c *Chamber) Height() uint64 {
	return c.removed + uint64(c.n)
}

// Top 回傳最高佔用列的絕對列號，空井回傳 -1。
func (c *Chamber) Top() int64 {
	return int64(c.Height()) - 1
}

func (c *Chamber) Rows() int        { return c.n }
func (c *Chamber) Removed() uint64  { return c.removed }
func (c *Chamber) Capacity() int    { return len(c.rows) }
func (c *Chamber) Peak() int        { return c.peak }
func (c *Chamber) Grown() int       { return c.grown }
func (c *Chamber) Compacting() bool { return c.compact }
