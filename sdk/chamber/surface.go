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
	"strings"

	"github.com/zintix-labs/rockfall/sdk/shape"
)

// truncated 標記指紋只涵蓋了存活視窗的頂端 depth 列。Row 最高只用到 bit 6，不會與列資料混淆。
const truncated byte = 0x80

// Surface 回傳地形表面的有限長度指紋：由上往下的頂端 min(n, depth) 列。
//
// 存活視窗不超過 depth 列時，指紋就是完整的可達地形（視窗以下都是實心），
// 相同指紋代表之後的模擬行為完全相同；超過時附加 truncated 標記，只比對頂端 depth 列。
func (c *Chamber) Surface(depth int) []byte {
	w := min(c.n, max(depth, 1))
	out := make([]byte, 0, w+1)
	for i := c.n - 1; i >= c.n-w; i-- {
		out = append(out, byte(c.at(i)))
	}
	if w < c.n {
		out = append(out, truncated)
	}
	return out
}

// String 以文字輸出存活視窗（除錯用）：'#' 為佔用格，底部 '+-------+' 為地板，
// '~' 表示下方還有已被丟棄的列。
func (c *Chamber) String() string {
	var sb strings.Builder
	for i := c.n - 1; i >= 0; i-- {
		sb.WriteString(RowString(c.at(i)))
		sb.WriteByte('\n')
	}
	if c.removed > 0 {
		sb.WriteString("+~~~~~~~+")
	} else {
		sb.WriteString("+-------+")
	}
	return sb.String()
}

// RowString 輸出單列，例如 "|..####.|"。
func RowString(r shape.Row) string {
	b := make([]byte, 0, shape.Width+2)
	b = append(b, '|')
	for col := 0; col < shape.Width; col++ {
		if r.Has(col) {
			b = append(b, '#')
		} else {
			b = append(b, '.')
		}
	}
	b = append(b, '|')
	return string(b)
}
