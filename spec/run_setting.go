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

package spec

import (
	"fmt"

	"github.com/zintix-labs/rockfall/errs"
)

const (
	DefaultSurfaceDepth = 64
	DefaultCapacity     = 128
	DefaultTraceLimit   = 1 << 16

	maxSurfaceDepth = 4096
)

// RunSetting 控制單次模擬的資源與行為。零值欄位在 Init 時套用預設值。
type RunSetting struct {
	SurfaceDepth int  `yaml:"surface_depth" json:"surface_depth"` // 循環指紋涵蓋的地形列數
	Capacity     int  `yaml:"capacity"      json:"capacity"`      // 地形環狀緩衝的初始容量
	NoCompact    bool `yaml:"no_compact"    json:"no_compact"`    // 關閉壓縮（只用於驗證）
	Direct       bool `yaml:"direct"        json:"direct"`        // 關閉循環偵測，完整模擬
	TraceLimit   int  `yaml:"trace_limit"   json:"trace_limit"`   // 高度軌跡最多保留幾筆
	initFlag     bool
}

// DefaultRunSetting 回傳已初始化的預設設定。
func DefaultRunSetting() *RunSetting {
	rs := &RunSetting{}
	_ = rs.Init()
	return rs
}

// Init 套用預設值（只在第一次呼叫時）並檢查合法性；之後修改欄位再呼叫 Init 會重新檢查。
func (rs *RunSetting) Init() error {
	if !rs.initFlag {
		if rs.SurfaceDepth == 0 {
			rs.SurfaceDepth = DefaultSurfaceDepth
		}
		if rs.Capacity == 0 {
			rs.Capacity = DefaultCapacity
		}
		if rs.TraceLimit == 0 {
			rs.TraceLimit = DefaultTraceLimit
		}
		rs.initFlag = true
	}
	return rs.valid()
}

func (rs *RunSetting) valid() error {
	if rs.SurfaceDepth < 1 || rs.SurfaceDepth > maxSurfaceDepth {
		return errs.NewFatal(fmt.Sprintf("surface_depth must be in [1, %d], got %d", maxSurfaceDepth, rs.SurfaceDepth))
	}
	if rs.Capacity < 1 {
		return errs.NewFatal(fmt.Sprintf("capacity must > 0, got %d", rs.Capacity))
	}
	if rs.TraceLimit < 0 {
		return errs.NewFatal(fmt.Sprintf("trace_limit must >= 0, got %d", rs.TraceLimit))
	}
	return nil
}

// Clone 回傳一份可獨立修改的副本（保留初始化狀態）。
func (rs *RunSetting) Clone() *RunSetting {
	c := *rs
	return &c
}
