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

// Package jet 解析並讀取循環的水平氣流序列（jet pattern）。
//
// Pattern 本身無狀態：游標（cursor）由呼叫端持有，讓游標可以原樣放進循環偵測的指紋。
package jet

import (
	"strings"

	"github.com/zintix-labs/rockfall/errs"
)

// Dir 為單次氣流推動方向，值即為水平位移量。
type Dir int8

const (
	Left  Dir = -1
	Right Dir = 1
)

const (
	SymbolLeft  = '<'
	SymbolRight = '>'
)

func (d Dir) String() string {
	if d == Left {
		return string(SymbolLeft)
	}
	return string(SymbolRight)
}

// Pattern 為不可變的氣流序列。
type Pattern struct {
	dirs []Dir
}

// Parse 解析輸入文字。
//
// 前後空白（含檔案結尾換行）會先被去除；之後每個字元都必須是 '<' 或 '>'。
// 空字串或任何其他字元都回傳 errs.ErrInvalidInput。
func Parse(text string) (*Pattern, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.InvalidInput("jet pattern is empty")
	}
	dirs := make([]Dir, len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case SymbolLeft:
			dirs[i] = Left
		case SymbolRight:
			dirs[i] = Right
		default:
			return nil, errs.InvalidInputf("jet pattern: unexpected %q at offset %d", text[i], i)
		}
	}
	return &Pattern{dirs: dirs}, nil
}

// MustParse 與 Parse 相同，錯誤時 panic。只給測試與內建範例使用。
func MustParse(text string) *Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Next 回傳 cursor 位置的方向與前進後的游標。純函數。
func (p *Pattern) Next(cursor uint64) (Dir, uint64) {
	return p.dirs[cursor%uint64(len(p.dirs))], cursor + 1
}

// Index 回傳游標在序列中的位置（cursor mod Len）。
func (p *Pattern) Index(cursor uint64) uint64 {
	return cursor % uint64(len(p.dirs))
}

func (p *Pattern) Len() int {
	return len(p.dirs)
}

// String 回傳標準文字表示，Parse(p.String()) 與 p 等價。
func (p *Pattern) String() string {
	var sb strings.Builder
	sb.Grow(len(p.dirs))
	for _, d := range p.dirs {
		if d == Left {
			sb.WriteByte(SymbolLeft)
		} else {
			sb.WriteByte(SymbolRight)
		}
	}
	return sb.String()
}
