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

// Package shape 定義落石井（shaft）的列位元表示與五種固定石塊。
//
// 座標約定：
//   - Row 的 bit i 代表第 i 欄（column i），0 為最左側。
//   - Shape.Rows 由下往上排列（Rows[0] 為石塊最底列），且已對齊左緣（最左格在 column 0）。
package shape

import "math/bits"

// Width 為井的固定寬度。
const Width = 7

// Row 為單一橫列的佔用位元遮罩。
type Row uint8

const (
	EmptyRow Row = 0
	FullRow  Row = 1<<Width - 1
)

// Count 回傳該列被佔用的格數。
func (r Row) Count() int {
	return bits.OnesCount8(uint8(r))
}

func (r Row) Has(col int) bool {
	return col >= 0 && col < Width && r&(1<<col) != 0
}

// Kind 為石塊種類（封閉列舉），依落下順序排列。
type Kind uint8

const (
	HBar   Kind = iota // ####
	Plus               // .#. / ### / .#.
	Angle              // ..# / ..# / ###
	VBar               // # x4
	Square             // ## / ##
)

// Count 為石塊種類數量，石塊索引每落下一顆就 mod Count 前進。
const Count = 5

var kindNames = [Count]string{"hbar", "plus", "angle", "vbar", "square"}

func (k Kind) String() string {
	if int(k) < Count {
		return kindNames[k]
	}
	return "unknown"
}

// Next 回傳下一顆要落下的石塊種類。
func (k Kind) Next() Kind {
	return Kind((int(k) + 1) % Count)
}

// Shape 為剛體石塊，資料不可變（以值傳遞）。
type Shape struct {
	Kind   Kind
	Rows   [4]Row // 由下往上，只有前 Height 列有效
	Width  int
	Height int
}

var library = [Count]Shape{
	{Kind: HBar, Rows: [4]Row{0b1111}, Width: 4, Height: 1},
	{Kind: Plus, Rows: [4]Row{0b010, 0b111, 0b010}, Width: 3, Height: 3},
	{Kind: Angle, Rows: [4]Row{0b111, 0b100, 0b100}, Width: 3, Height: 3},
	{Kind: VBar, Rows: [4]Row{0b1, 0b1, 0b1, 0b1}, Width: 1, Height: 4},
	{Kind: Square, Rows: [4]Row{0b11, 0b11}, Width: 2, Height: 2},
}

// MaxHeight 為最高石塊的列數（VBar）。
const MaxHeight = 4

// At 依索引取得石塊，索引一律取 mod Count（負數亦可）。
func At(index int) Shape {
	i := index % Count
	if i < 0 {
		i += Count
	}
	return library[i]
}

// Of 依種類取得石塊。
func Of(k Kind) Shape {
	return At(int(k))
}

// Shift 回傳第 i 列往右平移 x 欄後的遮罩。
// 呼叫端需自行確認 0 <= x <= Width-s.Width，超出範圍的位元會被截斷。
func (s Shape) Shift(i int, x int) Row {
	return Row(uint16(s.Rows[i]) << x & uint16(FullRow))
}

// Fits 回傳水平位移 x 是否讓整顆石塊留在井內。
func (s Shape) Fits(x int) bool {
	return x >= 0 && x+s.Width <= Width
}

// Cells 回傳石塊格數。
func (s Shape) Cells() int {
	n := 0
	for i := 0; i < s.Height; i++ {
		n += s.Rows[i].Count()
	}
	return n
}
