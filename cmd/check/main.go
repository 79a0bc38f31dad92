package main

import (
	"flag"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/zintix-labs/rockfall"
	"github.com/zintix-labs/rockfall/demo/demo_configs"
	"github.com/zintix-labs/rockfall/logger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 核對所有題目的預期答案，任何一筆不符即以非零狀態結束。
func main() {
	dir := flag.String("dir", "", "flat directory of case files (default: embedded demo cases)")
	workers := flag.Int("worker", 4, "number of cases checked in parallel")
	logmode := flag.String("log", "prod", "log mode: dev, prod, silence")
	flag.Parse()

	mode, err := logger.ParseMode(*logmode)
	if err != nil {
		log.Fatal(err)
	}
	cfgs := rockfall.Configs(demo_configs.FS)
	if *dir != "" {
		cfgs = rockfall.Configs(os.DirFS(*dir))
	}
	lg, async := logger.NewAsync(1024, mode)
	lab, err := rockfall.NewAuto(lg, cfgs)
	if err != nil {
		log.Fatal(err)
	}
	verdicts, err := lab.CheckAll(*workers)
	async.Close()
	if err != nil {
		log.Fatal(err)
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	p := message.NewPrinter(language.English)

	failed := 0
	for _, v := range verdicts {
		switch {
		case v.Err != nil:
			failed++
			p.Println(red(p.Sprintf("%-12s n=%-16d ERROR %v", v.Case, v.Blocks, v.Err)))
		case v.Expected == nil:
			p.Printf("%-12s n=%-16d %d\n", v.Case, v.Blocks, v.Actual)
		case v.Pass():
			p.Println(green(p.Sprintf("%-12s n=%-16d %d OK", v.Case, v.Blocks, v.Actual)))
		default:
			failed++
			p.Println(red(p.Sprintf("%-12s n=%-16d %d EXPECTING %d", v.Case, v.Blocks, v.Actual, *v.Expected)))
		}
	}
	if failed > 0 {
		p.Printf("%d of %d checks failed\n", failed, len(verdicts))
		os.Exit(1)
	}
}
