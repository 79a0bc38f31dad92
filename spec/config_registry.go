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
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/rockfall/errs"
	"gopkg.in/yaml.v3"
)

func GetCaseSettingByYAML(data []byte) (*CaseSetting, error) {
	cs := &CaseSetting{}
	if err := yaml.Unmarshal(data, cs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := cs.init(); err != nil {
		return nil, errs.Wrap(err, "case setting initialized err")
	}

	return cs, nil
}

func GetCaseSettingByJSON(data []byte) (*CaseSetting, error) {
	cs := &CaseSetting{}
	if err := json.Unmarshal(data, cs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	if err := cs.init(); err != nil {
		return nil, errs.Wrap(err, "case setting initialized err")
	}

	return cs, nil
}

// GetRunSettingByYAML 解析單獨的執行設定檔（CLI -config 使用）。
func GetRunSettingByYAML(data []byte) (*RunSetting, error) {
	rs := &RunSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err := dec.Decode(rs); err != nil {
		return nil, errs.Wrap(err, "failed to decode run setting yaml")
	}
	if err := rs.Init(); err != nil {
		return nil, errs.Wrap(err, "run setting initialized err")
	}
	return rs, nil
}
