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

package demo

import (
	"log/slog"

	"github.com/zintix-labs/rockfall"
	"github.com/zintix-labs/rockfall/catalog"
	"github.com/zintix-labs/rockfall/demo/demo_configs"
	"github.com/zintix-labs/rockfall/errs"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab 建立已註冊所有 demo 題目並 Freeze 的 Lab。
func NewLab(log *slog.Logger) (*rockfall.Lab, error) {
	lab, err := rockfall.NewAuto(log, rockfall.Configs(demo_configs.FS))
	if err != nil {
		return nil, errs.Wrap(err, "new demo lab failed")
	}
	return lab, nil
}
