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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"dev": ModeDev, " PROD ": ModeProd, "silence": ModeSilence} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("verbose"); err == nil {
		t.Fatal("unknown mode must fail")
	}
}

func TestBuildHandlerLevels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	if !buildHandler(ModeDev, &buf).Enabled(ctx, slog.LevelDebug) {
		t.Fatal("dev logs debug")
	}
	if buildHandler(ModeProd, &buf).Enabled(ctx, slog.LevelDebug) {
		t.Fatal("prod skips debug")
	}
	slog.New(buildHandler(ModeSilence, &buf)).Error("nothing")
	Discard().Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("silence wrote %q", buf.String())
	}
}

// syncBuffer 讓 worker goroutine 與測試可以同時讀寫
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestAsyncHandlerFlushesOnClose(t *testing.T) {
	out := &syncBuffer{}
	h := NewAsyncHandler(buildHandler(ModeProd, out), 64)
	lg := slog.New(h).With(slog.String("case", "example"))
	for i := 0; i < 10; i++ {
		lg.Info("cycle detected", slog.Int("i", i))
	}
	h.Close()
	h.Close()

	got := out.String()
	if n := strings.Count(got, "cycle detected"); n+int(h.Dropped()) != 10 {
		t.Fatalf("written %d + dropped %d != 10", n, h.Dropped())
	}
	if !strings.Contains(got, `"case":"example"`) {
		t.Fatalf("attrs lost: %s", got)
	}

	lg.Info("after close")
	if strings.Contains(out.String(), "after close") {
		t.Fatal("records after close must be dropped")
	}
}
