// Command lwl measures the throughput of the queue kinds against each other.
//
// Usage:
//
//	go run ./cmd/lwl
//	go run ./cmd/lwl -kinds spin,spsc -capacities 1,16 -ops put,take
//	go run ./cmd/lwl -config sweep.toml -iterations 5
//
// Flags given on the command line override the config file. Progress is
// logged to stderr; the summary table is written to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/randomizedcoder/lwl-queues/internal/harness"
	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "lwl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lwl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML sweep file")
	fs.String("kinds", "", "comma-separated queue kinds ("+kindList()+")")
	fs.String("capacities", "", "comma-separated queue capacities")
	fs.String("pairs", "", "comma-separated numbers of measured goroutines")
	fs.String("ops", "", "comma-separated ops ("+opList()+")")
	fs.Int("warmup-iterations", 0, "warmup windows per combination")
	fs.Duration("warmup", 0, "warmup window")
	fs.Int("iterations", 0, "measured windows per combination")
	fs.Duration("measure", 0, "measured window")
	fs.Duration("trial-cooldown", 0, "pause before each combination")
	fs.Duration("max-cooldown", 0, "cap on the pause between windows")
	fs.String("log-level", "", "zerolog level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := harness.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = harness.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if err := applyFlags(fs, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().
		Logger()

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		log.Debug().Msgf(format, v...)
	}))
	defer undo()
	if err != nil {
		log.Warn().Err(err).Msg("could not set GOMAXPROCS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Stringers("kinds", stringers(cfg.Kinds)).
		Ints("capacities", cfg.Capacities).
		Ints("pairs", cfg.Pairs).
		Stringers("ops", stringers(cfg.Ops)).
		Msg("starting sweep")

	results, err := harness.Run(ctx, cfg, log)
	printSummary(stdout, harness.Summarize(results))
	return err
}

// applyFlags copies every flag set on the command line into cfg.
func applyFlags(fs *flag.FlagSet, cfg *harness.Config) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case "kinds":
			cfg.Kinds, err = parseList(v, queue.ParseKind)
		case "capacities":
			cfg.Capacities, err = parseList(v, strconv.Atoi)
		case "pairs":
			cfg.Pairs, err = parseList(v, strconv.Atoi)
		case "ops":
			cfg.Ops, err = parseList(v, harness.ParseOp)
		case "warmup-iterations":
			cfg.WarmupIterations, err = strconv.Atoi(v)
		case "warmup":
			cfg.Warmup.Duration, err = time.ParseDuration(v)
		case "iterations":
			cfg.Iterations, err = strconv.Atoi(v)
		case "measure":
			cfg.Measure.Duration, err = time.ParseDuration(v)
		case "trial-cooldown":
			cfg.TrialCooldown.Duration, err = time.ParseDuration(v)
		case "max-cooldown":
			cfg.MaxCooldown.Duration, err = time.ParseDuration(v)
		case "log-level":
			cfg.LogLevel = v
		}
		if err != nil {
			err = fmt.Errorf("-%s: %w", f.Name, err)
		}
	})
	return err
}

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	var out []T
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := parse(field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func printSummary(w io.Writer, summaries []harness.Summary) {
	if len(summaries) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "kind\tcapacity\tpairs\top\tops/ms\t± stddev\tmin\tmax\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t\n",
			s.Kind, s.Capacity, s.Pairs, s.Op, s.Mean, s.StdDev, s.Min, s.Max)
	}
	tw.Flush()
}

func kindList() string {
	names := make([]string, 0, len(queue.Kinds()))
	for _, k := range queue.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

func opList() string {
	names := make([]string, 0, len(harness.Ops()))
	for _, o := range harness.Ops() {
		names = append(names, o.String())
	}
	return strings.Join(names, ", ")
}

func stringers[T fmt.Stringer](in []T) []fmt.Stringer {
	out := make([]fmt.Stringer, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
