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

package rockfall

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/logger"
	"github.com/zintix-labs/rockfall/recorder"
	"github.com/zintix-labs/rockfall/sdk/cycle"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/spec"
	"github.com/zintix-labs/rockfall/stats"
)

const (
	ModeCycle  = "cycle"
	ModeDirect = "direct"
)

// Simulator 針對一組氣流序列計算任意落石數後的塔高。
//
// 每次呼叫（Height / Direct / Run）都從空井開始建立新的 Machine，彼此獨立；
// 同一個 Simulator 可以被多個 goroutine 同時使用。
type Simulator struct {
	Name    string
	pattern *jet.Pattern
	rs      *spec.RunSetting
	log     *slog.Logger
}

// NewSimulator 建立模擬器。rs 為 nil 時使用預設設定；log 為 nil 時不輸出日誌。
func NewSimulator(name string, p *jet.Pattern, rs *spec.RunSetting, log *slog.Logger) (*Simulator, error) {
	if p == nil {
		return nil, errs.NewFatal("jet pattern required")
	}
	if rs == nil {
		rs = spec.DefaultRunSetting()
	} else {
		rs = rs.Clone()
		if err := rs.Init(); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Simulator{
		Name:    name,
		pattern: p,
		rs:      rs,
		log:     log.With(slog.String("case", name)),
	}, nil
}

// Setting 回傳模擬器使用的設定（唯讀）。
func (s *Simulator) Setting() spec.RunSetting {
	return *s.rs
}

func (s *Simulator) Pattern() *jet.Pattern {
	return s.pattern
}

// Height 回傳落下 n 顆後的塔高。除非設定為 Direct，否則會使用循環偵測外推。
func (s *Simulator) Height(n uint64) (h uint64, err error) {
	defer func() {
		if e := errs.Recovered(recover()); e != nil {
			h, err = 0, e
		}
	}()
	return s.simulate(n, !s.rs.Direct, nil).height, nil
}

// Direct 不使用循環偵測，逐顆模擬 n 顆。
func (s *Simulator) Direct(n uint64) (h uint64, err error) {
	defer func() {
		if e := errs.Recovered(recover()); e != nil {
			h, err = 0, e
		}
	}()
	return s.simulate(n, false, nil).height, nil
}

// Run 與 Height 相同，但額外回傳完整報表與高度軌跡；showpb 控制是否在 stderr 顯示進度條。
func (s *Simulator) Run(n uint64, showpb bool) (rep *stats.Report, trace *stats.Trace, used time.Duration, err error) {
	defer func() {
		if e := errs.Recovered(recover()); e != nil {
			rep, trace, used, err = nil, nil, 0, e
		}
	}()
	rec, err := recorder.NewTraceRecorder(s.Name, s.rs.TraceLimit)
	if err != nil {
		return nil, nil, 0, err
	}
	bar := pb.New64(int64(min(n, math.MaxInt64)))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	bar.Start()

	detect := !s.rs.Direct
	out := s.simulate(n, detect, func(m *Machine) {
		rec.Record(m.Blocks(), m.Height())
		bar.Increment()
	})
	if out.plan != nil {
		bar.Add64(int64(out.plan.SkippedBlocks()))
	}
	used = time.Since(bar.StartTime())
	bar.Finish()

	trace = rec.Done()
	rep = s.report(n, detect, out, used)
	rep.Growth = trace.Growth()
	rep.Done()
	s.log.Info("run finished",
		slog.Uint64("blocks", n),
		slog.Uint64("height", out.height),
		slog.Uint64("simulated", out.m.Blocks()),
		slog.Duration("used", used),
	)
	return rep, trace, used, nil
}

type outcome struct {
	m      *Machine
	height uint64
	plan   *cycle.Plan
	keys   int
}

// simulate 是 SEARCHING → EXTRAPOLATED 狀態機的主迴圈。
//
// after 在每一顆「真正模擬」的石塊靜止後呼叫（可為 nil）；被算術跳過的石塊不會觸發。
func (s *Simulator) simulate(n uint64, detect bool, after func(*Machine)) outcome {
	m := newMachine(s.pattern, s.rs)
	var det *cycle.Detector
	if detect {
		det = cycle.New(4 * s.pattern.Len())
	}
	step := func() {
		m.Step()
		if after != nil {
			after(m)
		}
	}

	for m.Blocks() < n {
		step()
		if det == nil {
			continue
		}
		cur := m.Record()
		prev, ok := det.Observe(m.Key(s.rs.SurfaceDepth), cur)
		if !ok {
			continue
		}
		keys := det.Len()
		plan := det.Extrapolate(prev, cur, n)
		s.log.Debug("cycle detected",
			slog.Uint64("start_blocks", prev.Blocks),
			slog.Uint64("start_height", prev.Height),
			slog.Uint64("period", plan.Period),
			slog.Uint64("gain", plan.Gain),
			slog.Uint64("cycles", plan.Cycles),
			slog.Uint64("leftover", plan.Leftover),
			slog.Int("keys", keys),
		)
		before := m.Height()
		for i := uint64(0); i < plan.Leftover; i++ {
			step()
		}
		if m.Height() < before {
			panic(errs.Invariantf("leftover simulation lowered height: %d -> %d", before, m.Height()))
		}
		s.checkBuffer(m)
		return outcome{m: m, height: m.Height() + plan.SkippedHeight(), plan: &plan, keys: keys}
	}
	s.checkBuffer(m)
	keys := 0
	if det != nil {
		keys = det.Len()
	}
	return outcome{m: m, height: m.Height(), keys: keys}
}

func (s *Simulator) checkBuffer(m *Machine) {
	c := m.Chamber()
	if c.Grown() > 0 {
		s.log.Warn("chamber buffer grew beyond initial capacity",
			slog.Int("capacity", c.Capacity()),
			slog.Int("peak_rows", c.Peak()),
			slog.Int("grown", c.Grown()),
			slog.Bool("compact", c.Compacting()),
		)
	}
}

func (s *Simulator) report(n uint64, detect bool, out outcome, used time.Duration) *stats.Report {
	c := out.m.Chamber()
	mode := ModeDirect
	if detect {
		mode = ModeCycle
	}
	rep := &stats.Report{
		Summary: &stats.SummaryReport{
			Case:       s.Name,
			PatternLen: s.pattern.Len(),
			Mode:       mode,
			Target:     n,
			Height:     out.height,
			Simulated:  out.m.Blocks(),
			Steps:      out.m.Steps(),
			UsedSecond: used.Seconds(),
		},
		Chamber: &stats.ChamberReport{
			Compact:  c.Compacting(),
			Capacity: c.Capacity(),
			Peak:     c.Peak(),
			Live:     c.Rows(),
			Removed:  c.Removed(),
			Grown:    c.Grown(),
		},
	}
	if detect {
		cr := &stats.CycleReport{Keys: out.keys}
		if p := out.plan; p != nil {
			cr.Found = true
			cr.StartBlocks = p.Start.Blocks
			cr.StartHeight = p.Start.Height
			cr.Period = p.Period
			cr.Gain = p.Gain
			cr.Cycles = p.Cycles
			cr.Leftover = p.Leftover
		}
		rep.Cycle = cr
	}
	return rep
}
