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

import "github.com/zintix-labs/rockfall/sdk/shape"

// Compact 丟棄所有永遠無法再被落石觸及的底部列，回傳丟棄的列數。
//
// 可達性以「單格」為單位由最高列上方的空列往下做 flood fill（往下、往左、往右），
// 這是剛體石塊可達範圍的超集合：剛體每一步移動，每一格都各自走了一步合法的單格移動。
// 移動不會往上，所以每列的可達格只取決於它上方那一列的可達格與本列的空格。
// 第一個完全沒有可達格的列（sealed row）以下（含該列）都不會再被碰到，
// 把它們視為實心不會改變任何碰撞結果，因此可以安全丟棄。
//
// 全滿的列是最簡單的 sealed row；兩列互補（row[i]|row[i-1] == FullRow）也會在此被封住。
//
// 每列的可達格快取在 reach。只從 Commit 改動過的最高列往下重算，
// 越過改動範圍之後一旦重算結果與快取相同，下方各列也不會改變，直接停止。
func (c *Chamber) Compact() int {
	if !c.compact || c.dirtyHi < 0 {
		return 0
	}
	hi := min(c.dirtyHi, c.n-1)
	lo := c.dirtyLo
	c.dirtyHi = -1

	above := shape.FullRow
	if hi < c.n-1 {
		above = c.reachAt(hi + 1)
	}
	for local := hi; local >= 0; local-- {
		c.scanned++
		r := spread(above, ^c.at(local)&shape.FullRow)
		if r == 0 {
			drop := local + 1
			c.base = (c.base + drop) & c.mask
			c.n -= drop
			c.removed += uint64(drop)
			return drop
		}
		if local < lo && r == c.reachAt(local) {
			return 0
		}
		c.reach[(c.base+local)&c.mask] = r
		above = r
	}
	return 0
}

func (c *Chamber) reachAt(local int) shape.Row {
	return c.reach[(c.base+local)&c.mask]
}

// spread 回傳從 above 往下進入本列後，沿著 free 左右擴散能到達的格。
func spread(above, free shape.Row) shape.Row {
	r := above & free
	for {
		next := (r | r<<1 | r>>1) & free
		if next == r {
			return r
		}
		r = next
	}
}
