package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/zintix-labs/rockfall"
	"github.com/zintix-labs/rockfall/demo/demo_configs"
	"github.com/zintix-labs/rockfall/logger"
	"github.com/zintix-labs/rockfall/recorder"
	"github.com/zintix-labs/rockfall/sdk/jet"
	"github.com/zintix-labs/rockfall/spec"
	"github.com/zintix-labs/rockfall/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	input     string
	caseName  string
	dir       string
	runcfg    string
	blocks    blocksFlag
	direct    bool
	nocompact bool
	depth     int
	showpb    bool
	trace     string
	format    string
	pprofmode string
	logmode   string
}

// blocksFlag 接受逗號分隔的落石數，例如 -blocks 2022,1000000000000
type blocksFlag struct{ p *[]uint64 }

func (f blocksFlag) String() string {
	if f.p == nil {
		return ""
	}
	s := make([]string, len(*f.p))
	for i, n := range *f.p {
		s[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(s, ",")
}

func (f blocksFlag) Set(s string) error {
	out := (*f.p)[:0]
	for _, part := range strings.Split(s, ",") {
		part = strings.ReplaceAll(strings.TrimSpace(part), "_", "")
		if part == "" {
			continue
		}
		u, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return err
		}
		out = append(out, u)
	}
	*f.p = out
	return nil
}

var targets = []uint64{2022, 1_000_000_000_000}

func bindVar() {
	cfg.blocks = blocksFlag{&targets}
	flag.StringVar(&cfg.input, "input", "", "jet pattern file (overrides -case)")
	flag.StringVar(&cfg.caseName, "case", "example", "case name in the catalog")
	flag.StringVar(&cfg.dir, "dir", "", "flat directory of case files (default: embedded demo cases)")
	flag.StringVar(&cfg.runcfg, "config", "", "run setting yaml (overrides the case's run section)")
	flag.Var(cfg.blocks, "blocks", "comma separated block counts")
	flag.BoolVar(&cfg.direct, "direct", false, "disable cycle detection and simulate every block")
	flag.BoolVar(&cfg.nocompact, "nocompact", false, "disable chamber compaction")
	flag.IntVar(&cfg.depth, "depth", 0, "surface fingerprint depth (0: case/default)")
	flag.BoolVar(&cfg.showpb, "pb", false, "show progress bar")
	flag.StringVar(&cfg.trace, "trace", "", "save height trace to this .json.zst file")
	flag.StringVar(&cfg.format, "format", "table", "report format: table, json, yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.logmode, "log", "silence", "log mode: dev, prod, silence")

	flag.Parse()
}

// 這裡解析並建立要執行的模擬器
func executeSimulator() {
	cfg.valid()

	mode, err := logger.ParseMode(cfg.logmode)
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.NewDefaultLogger(mode)

	name, pattern, rs, expected := loadCase()
	if cfg.runcfg != "" {
		raw, err := os.ReadFile(cfg.runcfg)
		if err != nil {
			log.Fatal(err)
		}
		if rs, err = spec.GetRunSettingByYAML(raw); err != nil {
			log.Fatal(err)
		}
	}
	rs.Direct = rs.Direct || cfg.direct
	rs.NoCompact = rs.NoCompact || cfg.nocompact
	if cfg.depth > 0 {
		rs.SurfaceDepth = cfg.depth
	}

	s, err := rockfall.NewSimulator(name, pattern, rs, lg)
	if err != nil {
		log.Fatal(err)
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	p := message.NewPrinter(language.English)

	for _, n := range targets {
		if cfg.format == "table" {
			p.Println(green(p.Sprintf("[CASE:%s] [JETS:%d] [BLOCKS:%d]", name, pattern.Len(), n)))
		}
		rep, trace, used, err := s.Run(n, cfg.showpb)
		if err != nil {
			log.Fatal(err)
		}
		render, err := stats.RenderFor(cfg.format, used)
		if err != nil {
			log.Fatal(err)
		}
		if err := rep.WriteWith(os.Stdout, render); err != nil {
			log.Fatal(err)
		}
		if want, ok := expected[n]; ok && want != rep.Summary.Height {
			p.Println(red(p.Sprintf("EXPECTING %d, got %d", want, rep.Summary.Height)))
		}
		if cfg.trace != "" {
			path := tracePath(cfg.trace, n)
			if err := recorder.Save(path, trace); err != nil {
				log.Fatal(err)
			}
			p.Printf("trace saved: %s (%d samples)\n", path, trace.Len())
		}
	}
}

// loadCase 依 -input 或 -case 取得氣流序列、執行設定與已知答案。
func loadCase() (string, *jet.Pattern, *spec.RunSetting, map[uint64]uint64) {
	if cfg.input != "" {
		raw, err := os.ReadFile(cfg.input)
		if err != nil {
			log.Fatal(err)
		}
		pattern, err := jet.Parse(string(raw))
		if err != nil {
			log.Fatal(err)
		}
		return filepath.Base(cfg.input), pattern, &spec.RunSetting{}, nil
	}

	src := demo_configs.FS
	cfgs := rockfall.Configs(src)
	if cfg.dir != "" {
		cfgs = rockfall.Configs(os.DirFS(cfg.dir))
	}
	lab, err := rockfall.NewAuto(nil, cfgs)
	if err != nil {
		log.Fatal(err)
	}
	cs, err := lab.Case(cfg.caseName)
	if err != nil {
		log.Fatal(err)
	}
	expected := make(map[uint64]uint64, len(cs.Targets))
	for _, t := range cs.Targets {
		if t.Expected != nil {
			expected[t.Blocks] = *t.Expected
		}
	}
	rs := cs.Run.Clone()
	return cs.Name, cs.Pattern, rs, expected
}

// 多個落石數時，在副檔名前加上 -<blocks> 避免互相覆蓋
func tracePath(path string, n uint64) string {
	if len(targets) == 1 {
		return path
	}
	ext := ".json.zst"
	base, ok := strings.CutSuffix(path, ext)
	if !ok {
		ext = filepath.Ext(path)
		base = strings.TrimSuffix(path, ext)
	}
	return fmt.Sprintf("%s-%d%s", base, n, ext)
}

func (cfg *config) valid() {
	if len(targets) == 0 {
		log.Fatal("value err : blocks must not be empty")
	}
	if cfg.depth < 0 {
		log.Fatal("value err : depth must >= 0")
	}
	switch cfg.format {
	case "table", "json", "yaml":
	default:
		log.Fatalf("value err : unknown format %q", cfg.format)
	}
}
