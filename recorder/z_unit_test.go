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

package recorder

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRecorderLimit(t *testing.T) {
	r, err := NewTraceRecorder("example", 3)
	require.NoError(t, err)
	for b := uint64(1); b <= 5; b++ {
		r.Record(b, b*2)
	}
	assert.Equal(t, uint64(2), r.Dropped())
	tr := r.Done()
	assert.Equal(t, "example", tr.Case)
	assert.Equal(t, []uint64{1, 2, 3}, tr.Blocks)
	assert.Equal(t, []uint64{2, 4, 6}, tr.Heights)
	assert.True(t, tr.Truncated)

	// Done 回傳副本
	tr.Blocks[0] = 99
	assert.Equal(t, uint64(1), r.Done().Blocks[0])
}

func TestTraceRecorderDisabled(t *testing.T) {
	r, err := NewTraceRecorder("x", 0)
	require.NoError(t, err)
	r.Record(1, 1)
	assert.Equal(t, 0, r.Done().Len())

	_, err = NewTraceRecorder("x", -1)
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	r, _ := NewTraceRecorder("example", 100)
	for b := uint64(1); b <= 50; b++ {
		r.Record(b, b+b/2)
	}
	want := r.Done()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))
	assert.NotEqual(t, byte('{'), buf.Bytes()[0], "payload is compressed")

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLoad(t *testing.T) {
	r, _ := NewTraceRecorder("leftward", 10)
	r.Record(1, 1)
	r.Record(2, 4)
	path := filepath.Join(t.TempDir(), "out", "trace.json.zst")
	require.NoError(t, Save(path, r.Done()))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "leftward", got.Case)
	assert.Equal(t, 2, got.Len())

	assert.Error(t, Save(path, nil))
	_, err = Load(filepath.Join(t.TempDir(), "missing.json.zst"))
	assert.Error(t, err)
	_, err = Decode(bytes.NewReader([]byte("not zstd")))
	assert.Error(t, err)
}
