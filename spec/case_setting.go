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
	"strings"

	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/sdk/jet"
)

// Target 為一次要求的落石數量，Expected 非 nil 時代表已知答案（用於核對）。
type Target struct {
	Blocks   uint64  `yaml:"blocks"             json:"blocks"`
	Expected *uint64 `yaml:"expected,omitempty" json:"expected,omitempty"`
}

// CaseSetting 描述一組題目輸入：氣流序列、要計算的落石數與預期答案。
type CaseSetting struct {
	Name       string       `yaml:"name"    json:"name"`
	PatternStr string       `yaml:"pattern" json:"pattern"`
	Targets    []Target     `yaml:"targets" json:"targets"`
	Run        RunSetting   `yaml:"run"     json:"run"`
	Pattern    *jet.Pattern `yaml:"-"       json:"-"`
}

func (cs *CaseSetting) init() error {
	cs.Name = strings.TrimSpace(cs.Name)
	if cs.Name == "" {
		return errs.NewFatal("case name required")
	}
	p, err := jet.Parse(cs.PatternStr)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("case %s: invalid pattern", cs.Name))
	}
	cs.Pattern = p
	if err := cs.Run.Init(); err != nil {
		return errs.Wrap(err, fmt.Sprintf("case %s: invalid run setting", cs.Name))
	}
	return cs.valid()
}

func (cs *CaseSetting) valid() error {
	if len(cs.Targets) == 0 {
		return errs.NewFatal(fmt.Sprintf("case %s: empty targets", cs.Name))
	}
	seen := make(map[uint64]struct{}, len(cs.Targets))
	for _, t := range cs.Targets {
		if _, ok := seen[t.Blocks]; ok {
			return errs.NewFatal(fmt.Sprintf("case %s: duplicate target %d", cs.Name, t.Blocks))
		}
		seen[t.Blocks] = struct{}{}
	}
	return nil
}
