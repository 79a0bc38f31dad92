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

// Package cycle 偵測模擬進入週期的時間點，並以算術跳過整數個週期。
//
// 狀態機只有兩個狀態：Searching（初始）與 Extrapolated（終止）。
// 每次石塊靜止後呼叫 Observe；第一次遇到重複的 Key 即可呼叫 Extrapolate 得到跳躍計畫，
// 之後記憶表被釋放，不再做任何週期紀錄。
package cycle

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/kamstrup/intmap"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/sdk/shape"
)

type State uint8

const (
	Searching State = iota
	Extrapolated
)

func (s State) String() string {
	if s == Extrapolated {
		return "extrapolated"
	}
	return "searching"
}

// Key 為模擬狀態指紋：氣流游標（已 mod 序列長度）、下一顆石塊、地形表面。
// 所有欄位皆為值型別，Key 可直接比較且不可變。
type Key struct {
	Cursor  uint64
	Shape   shape.Kind
	Surface string
}

// Record 為某個 Key 第一次出現時的（已落石數, 塔高）。
type Record struct {
	Blocks uint64 `json:"blocks" yaml:"blocks"`
	Height uint64 `json:"height" yaml:"height"`
}

// Plan 為外推計畫：從 Current 開始，再跳過 Cycles 個週期並補模擬 Leftover 顆。
type Plan struct {
	Start    Record `json:"start"    yaml:"start"`
	Current  Record `json:"current"  yaml:"current"`
	Period   uint64 `json:"period"   yaml:"period"` // 每週期石塊數
	Gain     uint64 `json:"gain"     yaml:"gain"`   // 每週期增加的高度
	Cycles   uint64 `json:"cycles"   yaml:"cycles"`
	Leftover uint64 `json:"leftover" yaml:"leftover"`
}

// SkippedHeight 回傳被算術跳過的高度。
func (p Plan) SkippedHeight() uint64 {
	return p.Cycles * p.Gain
}

// SkippedBlocks 回傳被算術跳過的石塊數。
func (p Plan) SkippedBlocks() uint64 {
	return p.Cycles * p.Period
}

type entry struct {
	key  Key
	rec  Record
	next *entry // 雜湊碰撞鏈
}

// Detector 以 64-bit 雜湊為鍵的記憶表；碰撞時以完整 Key 比對，確保不會誤判週期。
type Detector struct {
	table *intmap.Map[uint64, *entry]
	size  int
	state State
}

func New(capacity int) *Detector {
	return &Detector{
		table: intmap.New[uint64, *entry](max(capacity, 64)),
		state: Searching,
	}
}

func (d *Detector) State() State { return d.state }

// Len 回傳記憶表內的 Key 數量。
func (d *Detector) Len() int { return d.size }

// Observe 紀錄 k 第一次出現時的 r（first occurrence wins）。
// 若 k 之前出現過，回傳當時的紀錄與 true。Extrapolated 之後永遠回傳 false。
func (d *Detector) Observe(k Key, r Record) (Record, bool) {
	if d.state != Searching {
		return Record{}, false
	}
	h := hash(k)
	head, _ := d.table.Get(h)
	for e := head; e != nil; e = e.next {
		if e.key == k {
			return e.rec, true
		}
	}
	d.table.Put(h, &entry{key: k, rec: r, next: head})
	d.size++
	return Record{}, false
}

// Extrapolate 依 prev（第一次出現）與 cur（目前）計算跳到 target 顆的計畫，
// 並把狀態轉為 Extrapolated、釋放記憶表。
//
// 週期長度為 0、高度倒退、或 target 已經落後於目前進度，都屬於不變量錯誤。
func (d *Detector) Extrapolate(prev, cur Record, target uint64) Plan {
	if cur.Blocks <= prev.Blocks {
		panic(errs.Invariantf("cycle: non-positive period: first=%d current=%d", prev.Blocks, cur.Blocks))
	}
	if cur.Height < prev.Height {
		panic(errs.Invariantf("cycle: height decreased: first=%d current=%d", prev.Height, cur.Height))
	}
	if target < cur.Blocks {
		panic(errs.Invariantf("cycle: target %d already passed at %d", target, cur.Blocks))
	}
	period := cur.Blocks - prev.Blocks
	remain := target - cur.Blocks
	p := Plan{
		Start:    prev,
		Current:  cur,
		Period:   period,
		Gain:     cur.Height - prev.Height,
		Cycles:   remain / period,
		Leftover: remain % period,
	}
	d.Discard()
	return p
}

// Discard 釋放記憶表並停止紀錄。
func (d *Detector) Discard() {
	d.table = nil
	d.size = 0
	d.state = Extrapolated
}

// hash 為 Key 的 FNV-1a 64-bit 雜湊。
func hash(k Key) uint64 {
	var head [9]byte
	binary.LittleEndian.PutUint64(head[:8], k.Cursor)
	head[8] = byte(k.Shape)
	h := fnv.New64a()
	_, _ = h.Write(head[:])
	_, _ = h.Write([]byte(k.Surface))
	return h.Sum64()
}
