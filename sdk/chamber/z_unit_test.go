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

package chamber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/sdk/shape"
)

// requireInvariantPanic 驗證 f 以 errs.ErrInvariant panic
func requireInvariantPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		e := errs.Recovered(r)
		require.NotNil(t, e)
		assert.True(t, errors.Is(e, errs.ErrInvariant), "got %v", e)
		assert.Equal(t, errs.Fatal, e.ErrLv)
	}()
	f()
}

// fullRow 在目前頂端上方疊出一整列滿列，另外在右側留下三列高的殘餘
func fullRow(c *Chamber) {
	y := int64(c.Height())
	c.Commit(shape.Of(shape.HBar), 0, y)
	c.Commit(shape.Of(shape.Square), 4, y)
	c.Commit(shape.Of(shape.VBar), 6, y)
}

func TestNewCapacity(t *testing.T) {
	assert.Equal(t, 16, New(0, true).Capacity())
	assert.Equal(t, 16, New(16, true).Capacity())
	assert.Equal(t, 32, New(17, true).Capacity())
	assert.Equal(t, 128, New(128, true).Capacity())
}

func TestEmptyChamber(t *testing.T) {
	c := New(16, true)
	assert.Equal(t, uint64(0), c.Height())
	assert.Equal(t, int64(-1), c.Top())
	assert.Equal(t, shape.FullRow, c.Row(-1))
	assert.Equal(t, shape.EmptyRow, c.Row(0))
	assert.Equal(t, shape.EmptyRow, c.Row(1000))
	assert.Equal(t, 0, c.Compact())
	assert.Empty(t, c.Surface(64))
	assert.Equal(t, "+-------+", c.String())
}

func TestCollides(t *testing.T) {
	c := New(16, true)
	hbar := shape.Of(shape.HBar)
	assert.False(t, c.Collides(hbar, 0, 0))
	assert.False(t, c.Collides(hbar, 3, 0))
	assert.True(t, c.Collides(hbar, 4, 0), "right wall")
	assert.True(t, c.Collides(hbar, -1, 0), "left wall")
	assert.True(t, c.Collides(hbar, 0, -1), "floor")

	c.Commit(hbar, 0, 0)
	plus := shape.Of(shape.Plus)
	// Plus 的底列只有中間一格，可以卡進 HBar 右側的空位
	assert.False(t, c.Collides(plus, 3, 0))
	assert.True(t, c.Collides(plus, 2, 0))
	assert.False(t, c.Collides(plus, 2, 1))
}

func TestCommit(t *testing.T) {
	c := New(16, true)
	c.Commit(shape.Of(shape.HBar), 2, 0)
	assert.Equal(t, uint64(1), c.Height())
	assert.Equal(t, int64(0), c.Top())
	assert.Equal(t, shape.Row(0b0111100), c.Row(0))
	assert.Equal(t, "|..####.|\n+-------+", c.String())

	c.Commit(shape.Of(shape.VBar), 0, 3)
	assert.Equal(t, uint64(7), c.Height())
	assert.Equal(t, 7, c.Rows())
	for y := int64(1); y < 3; y++ {
		assert.Equal(t, shape.EmptyRow, c.Row(y))
	}
	for y := int64(3); y < 7; y++ {
		assert.Equal(t, shape.Row(1), c.Row(y))
	}
}

func TestCommitInvariants(t *testing.T) {
	c := New(16, true)
	c.Commit(shape.Of(shape.HBar), 0, 0)
	requireInvariantPanic(t, func() { c.Commit(shape.Of(shape.VBar), 3, 0) })
	requireInvariantPanic(t, func() { c.Commit(shape.Of(shape.Square), 6, 5) })
	requireInvariantPanic(t, func() { c.Commit(shape.Of(shape.Square), 0, -1) })
}

func TestCompactFullRow(t *testing.T) {
	c := New(16, true)
	fullRow(c)
	assert.Equal(t, shape.FullRow, c.Row(0))
	assert.Equal(t, uint64(4), c.Height())

	require.Equal(t, 1, c.Compact())
	assert.Equal(t, uint64(1), c.Removed())
	assert.Equal(t, 3, c.Rows())
	assert.Equal(t, uint64(4), c.Height(), "compaction never changes height")
	assert.Equal(t, shape.FullRow, c.Row(0), "discarded rows read as solid")
	assert.Equal(t, shape.Row(0b1110000), c.Row(1))
	assert.Equal(t, 0, c.Compact())
	assert.Contains(t, c.String(), "+~~~~~~~+")
}

func TestCompactComplementaryPair(t *testing.T) {
	c := New(16, true)
	c.Commit(shape.Of(shape.HBar), 0, 0)  // row 0: cols 0-3
	c.Commit(shape.Of(shape.Angle), 4, 1) // row 1: cols 4-6
	require.NotEqual(t, shape.FullRow, c.Row(0))
	require.Equal(t, shape.FullRow, c.Row(0)|c.Row(1))

	// row 0 的空位只能從 row 1 的 cols 4-6 進入，而那裡已被佔滿
	assert.Equal(t, 1, c.Compact())
	assert.Equal(t, uint64(1), c.Removed())
	assert.Equal(t, uint64(4), c.Height())
}

func TestCompactKeepsReachableCave(t *testing.T) {
	c := New(16, true)
	c.Commit(shape.Of(shape.HBar), 0, 0)   // row 0: cols 0-3
	c.Commit(shape.Of(shape.Square), 5, 1) // rows 1-2: cols 5-6
	// row 0 的 cols 4-6 可經由 row 1 的 col 4 往下再往右走到
	assert.Equal(t, 0, c.Compact())
	assert.Equal(t, uint64(0), c.Removed())
	assert.Equal(t, 3, c.Rows())
}

func TestCompactDisabled(t *testing.T) {
	c := New(16, false)
	fullRow(c)
	assert.False(t, c.Compacting())
	assert.Equal(t, 0, c.Compact())
	assert.Equal(t, 4, c.Rows())
}

func TestCircularBufferWraps(t *testing.T) {
	c := New(16, true)
	const rounds = 100
	for i := 0; i < rounds; i++ {
		fullRow(c)
		c.Compact()
	}
	assert.Equal(t, uint64(4*rounds), c.Height())
	assert.Equal(t, uint64(4*rounds-3), c.Removed())
	assert.Equal(t, 3, c.Rows())
	assert.Equal(t, 16, c.Capacity())
	assert.Equal(t, 0, c.Grown())
	assert.LessOrEqual(t, c.Peak(), 7)

	top := int64(c.Height())
	assert.Equal(t, shape.Row(0b1000000), c.Row(top-1))
	assert.Equal(t, shape.Row(0b1000000), c.Row(top-2))
	assert.Equal(t, shape.Row(0b1110000), c.Row(top-3))
	assert.Equal(t, shape.FullRow, c.Row(top-4))
}

func TestGrowPreservesOrder(t *testing.T) {
	c := New(16, false)
	vbar := shape.Of(shape.VBar)
	for i := 0; i < 5; i++ {
		c.Commit(vbar, i%shape.Width, int64(c.Height()))
	}
	assert.Equal(t, uint64(20), c.Height())
	assert.Equal(t, 32, c.Capacity())
	assert.Equal(t, 1, c.Grown())
	assert.Equal(t, 20, c.Peak())
	for y := int64(0); y < 20; y++ {
		col := int(y / 4)
		assert.True(t, c.Row(y).Has(col), "row %d col %d", y, col)
		assert.Equal(t, 1, c.Row(y).Count(), "row %d", y)
	}
}

func TestGrowAfterWrap(t *testing.T) {
	c := New(16, true)
	for i := 0; i < 10; i++ {
		fullRow(c)
		c.Compact()
	}
	// 之後只疊在左側、永遠不會封住，迫使已經繞圈的緩衝擴容
	vbar := shape.Of(shape.VBar)
	for i := 0; i < 6; i++ {
		c.Commit(vbar, 0, int64(c.Height()))
		c.Compact()
	}
	assert.Equal(t, uint64(40+24), c.Height())
	assert.Equal(t, 27, c.Rows())
	assert.Equal(t, 32, c.Capacity())
	assert.Equal(t, 1, c.Grown())
	for y := int64(40); y < 64; y++ {
		assert.Equal(t, shape.Row(1), c.Row(y), "row %d", y)
	}
	assert.Equal(t, shape.Row(0b1110000), c.Row(37))
}

func TestCompactIsIncremental(t *testing.T) {
	c := New(16, true)
	vbar := shape.Of(shape.VBar)
	const rounds = 2000
	// 只疊在左牆，右側永遠開著：沒有任何列會被封住，存活列數持續增加
	for i := 0; i < rounds; i++ {
		c.Commit(vbar, 0, int64(c.Height()))
		require.Equal(t, 0, c.Compact())
	}
	assert.Equal(t, 4*rounds, c.Rows())
	assert.Equal(t, uint64(0), c.Removed())
	// 每次只重算新增的四列再加上確認快取未變的一列，與存活列數無關
	assert.LessOrEqual(t, c.scanned, uint64(5*rounds))

	// 擴容後快取仍然有效：封住最上方一列後，下方全部丟棄
	y := int64(c.Height())
	c.Commit(shape.Of(shape.HBar), 0, y)
	c.Commit(shape.Of(shape.Square), 4, y)
	c.Commit(shape.Of(shape.VBar), 6, y)
	assert.Equal(t, 4*rounds+1, c.Compact())
	assert.Equal(t, 3, c.Rows())
}

func TestSurface(t *testing.T) {
	c := New(16, true)
	c.Commit(shape.Of(shape.HBar), 0, 0)
	c.Commit(shape.Of(shape.Square), 5, 1)
	assert.Equal(t, []byte{0b1100000, 0b1100000, 0b0001111}, c.Surface(64))
	assert.Equal(t, []byte{0b1100000, 0b1100000, 0x80}, c.Surface(2))
	assert.Equal(t, []byte{0b1100000, 0x80}, c.Surface(0), "depth is at least one row")

	other := New(64, true)
	other.Commit(shape.Of(shape.HBar), 0, 0)
	other.Commit(shape.Of(shape.Square), 5, 1)
	assert.Equal(t, c.Surface(64), other.Surface(64))
}

func TestRowString(t *testing.T) {
	assert.Equal(t, "|.......|", RowString(shape.EmptyRow))
	assert.Equal(t, "|#######|", RowString(shape.FullRow))
	assert.Equal(t, "|#.....#|", RowString(0b1000001))
}
