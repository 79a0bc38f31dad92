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

// Package stats 彙整單次模擬的結果報表，並提供表格 / JSON / YAML 輸出。
package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

type Report struct {
	Summary *SummaryReport `json:"Summary"`
	Cycle   *CycleReport   `json:"Cycle,omitempty"`
	Chamber *ChamberReport `json:"Chamber"`
	Growth  *GrowthReport  `json:"Growth,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	Case       string  `json:"Case"`
	PatternLen int     `json:"PatternLen"`
	Mode       string  `json:"Mode"`      // cycle / direct
	Target     uint64  `json:"Target"`    // 要求的落石數
	Height     uint64  `json:"Height"`    // 最終塔高
	Simulated  uint64  `json:"Simulated"` // 真正逐步模擬的落石數
	Steps      uint64  `json:"Steps"`     // 氣流＋重力步數
	UsedSecond float64 `json:"UsedSecond"`
}

type CycleReport struct {
	Found         bool    `json:"Found"`
	Keys          int     `json:"Keys"` // 找到週期前記憶表的大小
	StartBlocks   uint64  `json:"StartBlocks"`
	StartHeight   uint64  `json:"StartHeight"`
	Period        uint64  `json:"Period"`
	Gain          uint64  `json:"Gain"`
	Cycles        uint64  `json:"Cycles"`
	Leftover      uint64  `json:"Leftover"`
	SkippedBlocks uint64  `json:"SkippedBlocks"`
	SkippedHeight uint64  `json:"SkippedHeight"`
	Rate          float64 `json:"Rate"` // 每顆石塊平均高度（Gain / Period）
}

type ChamberReport struct {
	Compact  bool   `json:"Compact"`
	Capacity int    `json:"Capacity"`
	Peak     int    `json:"Peak"`    // 歷史最大存活列數
	Live     int    `json:"Live"`    // 結束時存活列數
	Removed  uint64 `json:"Removed"` // 被壓縮丟棄的列數
	Grown    int    `json:"Grown"`   // 緩衝擴容次數
}

// Done 計算衍生欄位，重複呼叫無副作用。
func (r *Report) Done() {
	if r.isDone {
		return
	}
	if c := r.Cycle; c != nil && c.Found {
		c.SkippedBlocks = c.Cycles * c.Period
		c.SkippedHeight = c.Cycles * c.Gain
		if c.Period > 0 {
			c.Rate = float64(c.Gain) / float64(c.Period)
		}
	}
	r.isDone = true
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 以表格輸出到 stdout。
func (r *Report) StdOut(ut time.Duration) {
	r.Done()
	fmt.Println(r.Table(ut))
}

// Table 回傳表格字串。
func (r *Report) Table(ut time.Duration) string {
	keys, msg := r.fmtBasic(ut)
	return fmtTable(r.Summary.Case, keys, msg)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *Report) fmtBasic(ut time.Duration) ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Case":        s.Case,
		"Pattern Len": p.Sprintf("%d", s.PatternLen),
		"Mode":        s.Mode,
		"Blocks":      p.Sprintf("%d", s.Target),
		"Height":      p.Sprintf("%d", s.Height),
		"Simulated":   p.Sprintf("%d", s.Simulated),
		"Steps":       p.Sprintf("%d", s.Steps),
		"Used":        formatDuration(ut),
	}
	keys := []string{"Case", "Pattern Len", "Mode", "Blocks", "Height", "Simulated", "Steps", "Used"}

	if c := r.Cycle; c != nil && c.Found {
		basic["Cycle Start"] = p.Sprintf("%d (height %d)", c.StartBlocks, c.StartHeight)
		basic["Cycle Period"] = p.Sprintf("%d blocks / %d rows", c.Period, c.Gain)
		basic["Cycles Skipped"] = p.Sprintf("%d", c.Cycles)
		basic["Leftover"] = p.Sprintf("%d", c.Leftover)
		basic["Memo Keys"] = p.Sprintf("%d", c.Keys)
		keys = append(keys, "Cycle Start", "Cycle Period", "Cycles Skipped", "Leftover", "Memo Keys")
	}
	if ch := r.Chamber; ch != nil {
		basic["Compaction"] = fmt.Sprintf("%t", ch.Compact)
		basic["Buffer Peak"] = p.Sprintf("%d / %d rows", ch.Peak, ch.Capacity)
		basic["Rows Removed"] = p.Sprintf("%d", ch.Removed)
		keys = append(keys, "Compaction", "Buffer Peak", "Rows Removed")
	}
	if g := r.Growth; g != nil && g.Samples > 1 {
		basic["Growth Slope"] = p.Sprintf("%.4f rows/block", g.Slope)
		basic["Mean Gain"] = p.Sprintf("%.4f ± %.4f", g.MeanGain, g.GainStd)
		keys = append(keys, "Growth Slope", "Mean Gain")
	}
	return keys, basic
}

func formatDuration(d time.Duration) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return p.Sprintf("%.3f seconds", d.Seconds())
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("%dm %ds", m, s)
	}
	return p.Sprintf("%dh:%dm:%ds", h, m, s)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
