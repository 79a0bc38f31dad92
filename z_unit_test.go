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
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/rockfall/errs"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/spec"
)

const example = ">>><<><>><<<>><>>><<<>>><<<><<<>><>><<>>"

func newSim(t *testing.T, pattern string, rs *spec.RunSetting) *Simulator {
	t.Helper()
	p, err := jet.Parse(pattern)
	require.NoError(t, err)
	s, err := NewSimulator("test", p, rs, nil)
	require.NoError(t, err)
	return s
}

func TestHeightOfExample(t *testing.T) {
	for _, c := range []struct {
		blocks uint64
		want   uint64
	}{
		{0, 0},
		{1, 1},
		{2, 4},
		{10, 17},
		{2022, 3068},
		{1_000_000_000_000, 1_514_285_714_288},
	} {
		h, err := HeightOf(example, c.blocks)
		require.NoError(t, err)
		assert.Equal(t, c.want, h, "n=%d", c.blocks)
	}
}

func TestHeightOfConstantWind(t *testing.T) {
	h, err := HeightOf("<", 1_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_200_000_000_000), h)

	h, err = HeightOf(">\n", 1_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_600_000_000_000), h)
}

func TestHeightOfInvalidInput(t *testing.T) {
	for _, in := range []string{"", "<>x", "abc"} {
		_, err := HeightOf(in, 2022)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput), in)
	}
}

func TestCycleMatchesDirect(t *testing.T) {
	for _, pattern := range []string{example, "<", ">", "<>", ">><<<"} {
		s := newSim(t, pattern, nil)
		for n := uint64(0); n <= 300; n++ {
			want, err := s.Direct(n)
			require.NoError(t, err)
			got, err := s.Height(n)
			require.NoError(t, err)
			require.Equal(t, want, got, "%s n=%d", pattern, n)
		}
	}
}

func TestHeightMonotone(t *testing.T) {
	s := newSim(t, example, nil)
	var prev uint64
	for n := uint64(0); n <= 500; n++ {
		h, err := s.Height(n)
		require.NoError(t, err)
		require.GreaterOrEqual(t, h, prev, "n=%d", n)
		require.LessOrEqual(t, h-prev, uint64(4), "one block adds at most four rows")
		prev = h
	}
}

func TestCompactionInvariance(t *testing.T) {
	compact := newSim(t, example, nil)
	plain := newSim(t, example, &spec.RunSetting{NoCompact: true})
	for _, n := range []uint64{0, 1, 57, 2022, 1_000_000_000_000} {
		a, err := compact.Height(n)
		require.NoError(t, err)
		b, err := plain.Height(n)
		require.NoError(t, err)
		assert.Equal(t, a, b, "n=%d", n)
	}
	a, _ := compact.Direct(2022)
	b, _ := plain.Direct(2022)
	assert.Equal(t, a, b)
}

func TestShallowFingerprint(t *testing.T) {
	s := newSim(t, example, &spec.RunSetting{SurfaceDepth: 8})
	h, err := s.Height(2022)
	require.NoError(t, err)
	assert.Equal(t, uint64(3068), h)
}

func TestRunReport(t *testing.T) {
	s := newSim(t, example, nil)
	rep, trace, used, err := s.Run(2022, false)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.GreaterOrEqual(t, used.Nanoseconds(), int64(0))

	sum := rep.Summary
	assert.Equal(t, "test", sum.Case)
	assert.Equal(t, 40, sum.PatternLen)
	assert.Equal(t, ModeCycle, sum.Mode)
	assert.Equal(t, uint64(2022), sum.Target)
	assert.Equal(t, uint64(3068), sum.Height)
	assert.Equal(t, uint64(63+34), sum.Simulated)

	cyc := rep.Cycle
	require.NotNil(t, cyc)
	assert.True(t, cyc.Found)
	assert.Equal(t, uint64(28), cyc.StartBlocks)
	assert.Equal(t, uint64(49), cyc.StartHeight)
	assert.Equal(t, uint64(35), cyc.Period)
	assert.Equal(t, uint64(53), cyc.Gain)
	assert.Equal(t, uint64(55), cyc.Cycles)
	assert.Equal(t, uint64(34), cyc.Leftover)
	assert.Equal(t, uint64(55*35), cyc.SkippedBlocks)
	assert.Equal(t, uint64(55*53), cyc.SkippedHeight)
	assert.Equal(t, 62, cyc.Keys)
	assert.InDelta(t, 53.0/35.0, cyc.Rate, 1e-12)

	assert.True(t, rep.Chamber.Compact)
	assert.Equal(t, 0, rep.Chamber.Grown)
	assert.Equal(t, sum.Height-cyc.SkippedHeight, rep.Chamber.Removed+uint64(rep.Chamber.Live))

	require.Equal(t, 97, trace.Len())
	b0, h0 := trace.At(0)
	assert.Equal(t, uint64(1), b0)
	assert.Equal(t, uint64(1), h0)
	bl, hl := trace.At(trace.Len() - 1)
	assert.Equal(t, uint64(97), bl)
	assert.Equal(t, sum.Height-cyc.SkippedHeight, hl)
	assert.False(t, trace.Truncated)

	require.NotNil(t, rep.Growth)
	assert.Equal(t, 97, rep.Growth.Samples)
	assert.InDelta(t, 1.5, rep.Growth.Slope, 0.2)
}

func TestRunDirectGrowsBuffer(t *testing.T) {
	s := newSim(t, "<", &spec.RunSetting{Direct: true, TraceLimit: 100})
	rep, trace, _, err := s.Run(2022, false)
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, rep.Summary.Mode)
	assert.Nil(t, rep.Cycle)
	assert.Equal(t, uint64(4448), rep.Summary.Height)
	assert.Equal(t, uint64(2022), rep.Summary.Simulated)
	assert.Equal(t, uint64(0), rep.Chamber.Removed, "a constant left wind never seals a row")
	assert.Greater(t, rep.Chamber.Grown, 0)
	assert.Equal(t, 100, trace.Len())
	assert.True(t, trace.Truncated)
}

func TestDirectBufferStaysBounded(t *testing.T) {
	s := newSim(t, example, nil)
	out := s.simulate(100_000, false, nil)
	assert.Equal(t, uint64(151_434), out.height)
	c := out.m.Chamber()
	assert.Equal(t, 0, c.Grown())
	assert.Equal(t, spec.DefaultCapacity, c.Capacity())
	assert.LessOrEqual(t, c.Peak(), 64)
}

func TestDirectNeverSealingIsLinear(t *testing.T) {
	// "<" 讓右側永遠開著，壓縮丟不掉任何列；每顆石塊的壓縮成本仍需固定
	s := newSim(t, "<", nil)
	start := time.Now()
	h, err := s.Direct(100_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(220_000), h)
	assert.Less(t, time.Since(start), 5*time.Second)

	out := s.simulate(100_000, false, nil)
	assert.Equal(t, uint64(0), out.m.Chamber().Removed())
	assert.Equal(t, 220_000, out.m.Chamber().Rows())
}

func TestRunZeroBlocks(t *testing.T) {
	s := newSim(t, example, nil)
	rep, trace, _, err := s.Run(0, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rep.Summary.Height)
	assert.False(t, rep.Cycle.Found)
	assert.Equal(t, 0, trace.Len())
	assert.Equal(t, 0, rep.Growth.Samples)
}

func TestNewSimulatorValidates(t *testing.T) {
	_, err := NewSimulator("x", nil, nil, nil)
	require.Error(t, err)

	p := jet.MustParse("<>")
	_, err = NewSimulator("x", p, &spec.RunSetting{SurfaceDepth: -1}, nil)
	require.Error(t, err)

	rs := &spec.RunSetting{}
	s, err := NewSimulator("x", p, rs, nil)
	require.NoError(t, err)
	assert.Equal(t, spec.DefaultSurfaceDepth, s.Setting().SurfaceDepth)
	assert.Equal(t, 0, rs.SurfaceDepth, "caller setting is not modified")
	assert.Same(t, p, s.Pattern())
}

func TestMachineKey(t *testing.T) {
	p := jet.MustParse(example)
	m := newMachine(p, spec.DefaultRunSetting())
	m.Step()
	m.Step()
	k := m.Key(64)
	assert.Equal(t, uint64(8), k.Cursor)
	assert.Equal(t, "angle", k.Shape.String())
	assert.Equal(t, string([]byte{0b0001000, 0b0011100, 0b0001000, 0b0111100}), k.Surface)
	assert.Equal(t, uint64(2), m.Record().Blocks)
	assert.Equal(t, uint64(4), m.Record().Height)
	assert.Equal(t, uint64(8), m.Steps())

	for m.Cursor() < 40 {
		m.Step()
	}
	assert.Equal(t, m.Cursor()%40, m.Key(64).Cursor)
}

const labCases = `name: example
pattern: "` + example + `"
targets:
  - blocks: 2022
    expected: 3068
  - blocks: 1000000000000
    expected: 1514285714288
`

const wrongCase = `name: Wrong
pattern: "<"
targets:
  - blocks: 5
    expected: 12
  - blocks: 10
`

func TestLab(t *testing.T) {
	fsys := fstest.MapFS{
		"example.yaml": {Data: []byte(labCases)},
		"wrong.yml":    {Data: []byte(wrongCase)},
		"README.md":    {Data: []byte("ignored")},
	}
	lab, err := New(nil, Configs(fsys))
	require.NoError(t, err)
	require.NoError(t, lab.RegisterAll())

	_, err = lab.NewSimulator("example")
	require.Error(t, err, "catalog not frozen")

	lab.Freeze()
	assert.Equal(t, []string{"example", "wrong"}, lab.Names())

	vs, err := lab.Check("example")
	require.NoError(t, err)
	require.Len(t, vs, 2)
	for _, v := range vs {
		assert.True(t, v.Pass(), v.String())
	}

	vs, err = lab.Check("WRONG")
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.False(t, vs[0].Pass())
	assert.Equal(t, uint64(11), vs[0].Actual)
	assert.Contains(t, vs[0].String(), "EXPECTING 12")
	assert.True(t, vs[1].Pass())
	assert.Nil(t, vs[1].Expected)
	assert.Equal(t, uint64(22), vs[1].Actual)

	all, err := lab.CheckAll(4)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "example", all[0].Case)
	assert.Equal(t, "Wrong", all[3].Case)

	_, err = lab.Check("missing")
	require.Error(t, err)
}

func TestLabRejectsBadCase(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.yaml": {Data: []byte("name: bad\npattern: \"<<?\"\ntargets:\n  - blocks: 1\n")},
	}
	_, err := NewAuto(nil, Configs(fsys))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestLabDuplicateNames(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(labCases)},
		"b.yaml": {Data: []byte(labCases)},
	}
	_, err := NewAuto(nil, Configs(fsys))
	require.Error(t, err)
}
