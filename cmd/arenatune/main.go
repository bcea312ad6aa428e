// Command arenatune replays an allocation workload against arenas with
// different ideal page sizes and reports how much page memory each wastes.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/lmittmann/tint"
	"github.com/pbnjay/memory"
	"github.com/spf13/pflag"

	"github.com/pavanmanishd/pagearena"
	"github.com/pavanmanishd/pagearena/internal/workload"
)

var (
	EnvPrefix = "ARENATUNE_"
	Profile   = pflag.StringP("profile", "p", "", "workload profile (yaml); the built-in parse-tree profile if empty")
	Ideal     = pflag.IntSliceP("ideal", "i", []int{1024, 2048, 4096, 8192, 16384}, "candidate ideal page sizes")
	First     = pflag.Int("first", pagearena.DefaultFirstPageSize, "first page size")
	Verify    = pflag.BoolP("verify", "v", false, "run in verify mode (headers, guards, teardown checks)")
	Source    = pflag.String("source", "heap", "page source (heap, mmap)")
	Limit     = pflag.Int64("limit", int64(memory.TotalMemory()/8), "page memory budget in bytes (0 for unlimited)")
	LogLevel  = LevelP("log-level", "L", slog.LevelInfo, "log level")
	LogJSON   = pflag.Bool("log-json", false, "use json logs")
	Help      = pflag.BoolP("help", "h", false, "show this help text")
)

func main() {
	ParseEnv(EnvPrefix)
	pflag.Parse()

	if *Help || pflag.NArg() != 0 {
		fmt.Printf("usage: %s [options]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: LogLevel,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: LogLevel,
		})))
	}

	if err := run(os.Stdout); err != nil {
		slog.Error("arenatune failed", "error", err)
		os.Exit(1)
	}
}

func run(w io.Writer) error {
	p := workload.Default()
	if *Profile != "" {
		var err error
		if p, err = workload.Load(*Profile); err != nil {
			return err
		}
	}

	opts, err := options()
	if err != nil {
		return err
	}

	slog.Info("replaying workload", "profile", p.Name, "units", p.Units, "requests", p.Requests,
		"mode", opts.Mode, "candidates", *Ideal)
	reports, err := workload.Tune(p, opts, *Ideal)
	if err != nil {
		return err
	}
	return printReports(w, reports)
}

func options() (pagearena.Options, error) {
	opts := pagearena.Options{
		Mode:          pagearena.ModeFast,
		FirstPageSize: *First,
		Logger:        slog.Default(),
	}
	if *Verify {
		opts.Mode = pagearena.ModeVerify
	}

	switch *Source {
	case "heap":
		opts.Source = pagearena.HeapSource{}
	case "mmap":
		opts.Source = pagearena.MmapSource{}
	default:
		return opts, errors.Newf("unknown page source %q", *Source)
	}
	if *Limit > 0 {
		opts.Source = &pagearena.LimitedSource{Source: opts.Source, Limit: *Limit}
	}
	return opts, nil
}

func printReports(w io.Writer, reports []workload.Report) error {
	best, _ := workload.Best(reports)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ideal\tpages\torphans\trequested\tallocated\twaste\tpeak pages\tpeak bytes\tfaults\t")
	for _, r := range reports {
		mark := ""
		if r.IdealPageSize == best.IdealPageSize {
			mark = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%d\t%d\t%d\t%d\t%.1f%%\t%d\t%d\t%d\t\n",
			r.IdealPageSize, mark, r.Stats.Pages, r.Stats.Orphans, r.Stats.BytesRequested,
			r.Stats.BytesAllocated, r.Stats.Waste()*100, r.PeakPages, r.PeakCapacity, r.Faults)
	}
	return tw.Flush()
}

// LevelP defines a slog.Level flag.
func LevelP(name, shorthand string, value slog.Level, usage string) *slog.LevelVar {
	level := new(slog.LevelVar)
	def := new(slog.LevelVar)
	def.Set(value)
	pflag.TextVarP(level, name, shorthand, def, usage)
	return level
}

// ParseEnv sets flags from environment variables named prefix + the flag
// name in upper case with dashes replaced by underscores.
func ParseEnv(prefix string) {
	for _, env := range os.Environ() {
		k, v, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		s, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		name := strings.Map(func(r rune) rune {
			if r == '_' {
				return '-'
			}
			return unicode.ToLower(r)
		}, s)
		if f := pflag.Lookup(name); f != nil && !f.Changed {
			if err := pflag.Set(name, v); err != nil {
				fmt.Fprintf(os.Stderr, "error: invalid value for %s: %v\n", k, err)
				os.Exit(2)
			}
		}
	}
}
