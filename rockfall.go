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

// Package rockfall 計算落石塔在任意落石數之後的高度。
//
// 組成：
//  1. Machine：單次模擬的完整狀態（地形、游標、下一顆石塊）。
//  2. Simulator：以循環偵測 + 算術外推計算 10^12 等級的落石數。
//  3. Lab：組裝器，持有題目目錄（catalog），負責建立 Simulator 與核對預期答案。
//
// 設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS），Lab 不處理檔案路徑。
package rockfall

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/rockfall/catalog"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/logger"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 為組裝器：Catalog（有哪些題目）+ Logger。
//
// 使用流程分兩階段：註冊階段（New / Register / RegisterAll）與執行階段（Freeze 之後建立 Simulator）。
type Lab struct {
	cat *catalog.Catalog
	log *slog.Logger
}

// New 建立 Lab；log 為 nil 時不輸出日誌。cfgs 至少一個。
func New(log *slog.Logger, cfgs []fs.FS) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cat, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Lab{cat: cat, log: log}, nil
}

// NewAuto 建立並註冊所有設定檔，直接進入執行階段。
func NewAuto(log *slog.Logger, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(log, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 解析所有設定檔，以檔內宣告的 name 批次註冊。
//
// Fail-fast：任一檔案解析失敗立刻回傳錯誤；全部成功才一次寫入 catalog（不會半註冊）。
func (l *Lab) RegisterAll() error {
	entries := make([]catalog.Entry, 0, 16)
	seen := map[string]string{}
	for _, src := range l.cat.Cfg().Sources() {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !catalog.IsConfigFile(path) {
				return nil
			}
			raw, err := fs.ReadFile(src, path)
			if err != nil {
				return errs.Wrap(err, fmt.Sprintf("read config failed: %s", path))
			}
			cs, err := catalog.ParseCaseSetting(path, raw)
			if err != nil {
				return errs.Wrap(err, fmt.Sprintf("parse case failed: %s", path))
			}
			if prev, ok := seen[cs.Name]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate case name: %s (config=%s and %s)", cs.Name, prev, path))
			}
			seen[cs.Name] = path
			entries = append(entries, catalog.Entry{Name: cs.Name, ConfigName: path})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}
	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

// Case 回傳題目的完整設定（每次重新解析，呼叫端可自由修改）。
func (l *Lab) Case(name string) (*spec.CaseSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.CaseSettingByName(name)
}

// NewSimulator 依題目名稱建立 Simulator，使用題目設定內的 run 參數。
func (l *Lab) NewSimulator(name string) (*Simulator, error) {
	cs, err := l.Case(name)
	if err != nil {
		return nil, err
	}
	return NewSimulator(cs.Name, cs.Pattern, &cs.Run, l.log)
}

// HeightOf 解析氣流序列並以預設設定計算 n 顆後的塔高。
func HeightOf(text string, n uint64) (uint64, error) {
	p, err := jet.Parse(text)
	if err != nil {
		return 0, err
	}
	s, err := NewSimulator("", p, nil, nil)
	if err != nil {
		return 0, err
	}
	return s.Height(n)
}
