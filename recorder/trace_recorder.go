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

// Package recorder 紀錄逐顆模擬的高度軌跡，並以 zstd 壓縮的 JSON 存檔。
package recorder

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/stats"
)

// TraceRecorder 非併發安全；每個 Simulator.Run 各自持有一個。
type TraceRecorder struct {
	name    string
	limit   int
	blocks  []uint64
	heights []uint64
	dropped uint64
}

// NewTraceRecorder 建立紀錄員，最多保留 limit 筆樣本；limit 為 0 代表完全不紀錄。
func NewTraceRecorder(name string, limit int) (*TraceRecorder, error) {
	if limit < 0 {
		return nil, errs.NewFatal("trace limit must not be negative")
	}
	c := min(limit, 4096)
	return &TraceRecorder{
		name:    name,
		limit:   limit,
		blocks:  make([]uint64, 0, c),
		heights: make([]uint64, 0, c),
	}, nil
}

// Record 紀錄落下 blocks 顆後的塔高。超過上限的樣本只計數不保存。
func (r *TraceRecorder) Record(blocks, height uint64) {
	if len(r.blocks) >= r.limit {
		r.dropped++
		return
	}
	r.blocks = append(r.blocks, blocks)
	r.heights = append(r.heights, height)
}

// Dropped 回傳超過上限而未保存的樣本數。
func (r *TraceRecorder) Dropped() uint64 {
	return r.dropped
}

// Done 回傳目前為止的軌跡（複製一份，之後的 Record 不影響結果）。
func (r *TraceRecorder) Done() *stats.Trace {
	return &stats.Trace{
		Case:      r.name,
		Blocks:    append([]uint64(nil), r.blocks...),
		Heights:   append([]uint64(nil), r.heights...),
		Truncated: r.dropped > 0,
	}
}

// Save 把軌跡寫成 zstd 壓縮的 JSON（建議副檔名 .json.zst），必要時建立目錄。
func Save(path string, t *stats.Trace) error {
	if t == nil {
		return errs.Warnf("save trace: trace is nil")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, "save trace: mkdir output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "save trace: create file")
	}
	defer func() { _ = f.Close() }()
	if err := Encode(f, t); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(err, "save trace: close file")
	}
	return nil
}

// Encode 把軌跡以 zstd 壓縮的 JSON 寫入 w。
func Encode(w io.Writer, t *stats.Trace) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return errs.Wrap(err, "encode trace: marshal json")
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errs.Wrap(err, "encode trace: create zstd writer")
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return errs.Wrap(err, "encode trace: write")
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "encode trace: close zstd writer")
	}
	return nil
}

// Load 讀回 Save 寫出的軌跡。
func Load(path string) (*stats.Trace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "load trace: read file")
	}
	return Decode(bytes.NewReader(raw))
}

// Decode 從 zstd 壓縮的 JSON 解回軌跡。
func Decode(r io.Reader) (*stats.Trace, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errs.Wrap(err, "decode trace: create zstd reader")
	}
	defer zr.Close()
	t := &stats.Trace{}
	if err := json.NewDecoder(zr).Decode(t); err != nil {
		return nil, errs.Wrap(err, "decode trace: unmarshal json")
	}
	return t, nil
}
