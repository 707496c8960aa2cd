package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("harness: invalid config")

// Op is the queue operation a measured goroutine performs in its hot loop.
type Op int

const (
	// OpBaseline increments a counter without touching a queue. It gives the
	// loop and clock overhead of the harness itself.
	OpBaseline Op = iota
	OpPut
	OpOffer
	OpTake
	OpPoll
)

var opNames = [...]string{
	OpBaseline: "baseline",
	OpPut:      "put",
	OpOffer:    "offer",
	OpTake:     "take",
	OpPoll:     "poll",
}

// Ops returns every Op.
func Ops() []Op {
	return []Op{OpBaseline, OpPut, OpOffer, OpTake, OpPoll}
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp returns the Op with the given name.
func ParseOp(s string) (Op, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range opNames {
		if name == s {
			return Op(o), nil
		}
	}
	return 0, fmt.Errorf("harness: unknown op %q", s)
}

func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Op) UnmarshalText(text []byte) error {
	v, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// enqueues reports whether o adds items, so its counterpart must remove them.
func (o Op) enqueues() bool {
	return o == OpPut || o == OpOffer
}

// Duration is a time.Duration written as a string ("100ms") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config describes a sweep: every combination of Kinds, Capacities, Pairs
// and Ops is measured in turn.
type Config struct {
	Kinds      []queue.Kind `toml:"kinds"`
	Capacities []int        `toml:"capacities"`
	// Pairs is the number of goroutines measured at once, each with its own
	// queue and its own counterpart.
	Pairs []int `toml:"pairs"`
	Ops   []Op  `toml:"ops"`

	WarmupIterations int      `toml:"warmup_iterations"`
	Warmup           Duration `toml:"warmup"`
	Iterations       int      `toml:"iterations"`
	Measure          Duration `toml:"measure"`

	// TrialCooldown is slept before each combination. After every window the
	// harness also sleeps for as long as the window took (twice as long with
	// several pairs), capped at MaxCooldown.
	TrialCooldown Duration `toml:"trial_cooldown"`
	MaxCooldown   Duration `toml:"max_cooldown"`

	// Baseline replaces the iteration settings above for OpBaseline, which
	// settles much faster than a queue.
	Baseline Schedule `toml:"baseline"`

	LogLevel string `toml:"log_level"`
}

// Schedule is the warmup and measurement plan of one combination.
type Schedule struct {
	WarmupIterations int      `toml:"warmup_iterations"`
	Warmup           Duration `toml:"warmup"`
	Iterations       int      `toml:"iterations"`
	Measure          Duration `toml:"measure"`
}

// Schedule returns the plan used for op.
func (c Config) Schedule(op Op) Schedule {
	if op == OpBaseline {
		return c.Baseline
	}
	return Schedule{
		WarmupIterations: c.WarmupIterations,
		Warmup:           c.Warmup,
		Iterations:       c.Iterations,
		Measure:          c.Measure,
	}
}

func (s Schedule) validate(name string) error {
	if s.Iterations < 1 {
		return fmt.Errorf("%w: %siterations must be positive, got %d", ErrInvalidConfig, name, s.Iterations)
	}
	if s.WarmupIterations < 0 {
		return fmt.Errorf("%w: %swarmup iterations must not be negative, got %d", ErrInvalidConfig, name, s.WarmupIterations)
	}
	if s.Measure.Duration <= 0 {
		return fmt.Errorf("%w: %smeasure window must be positive, got %v", ErrInvalidConfig, name, s.Measure)
	}
	if s.WarmupIterations > 0 && s.Warmup.Duration <= 0 {
		return fmt.Errorf("%w: %swarmup window must be positive, got %v", ErrInvalidConfig, name, s.Warmup)
	}
	return nil
}

// DefaultConfig returns the sweep used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Kinds:            []queue.Kind{queue.KindLock, queue.KindSpin, queue.KindSPSC, queue.KindPaddedSpin, queue.KindPaddedSPSC},
		Capacities:       []int{1, 4, 16, 256},
		Pairs:            []int{1},
		Ops:              []Op{OpPut, OpTake, OpOffer, OpPoll},
		WarmupIterations: 10,
		Warmup:           Duration{200 * time.Millisecond},
		Iterations:       10,
		Measure:          Duration{100 * time.Millisecond},
		TrialCooldown:    Duration{time.Second},
		MaxCooldown:      Duration{2 * time.Second},
		Baseline: Schedule{
			WarmupIterations: 5,
			Warmup:           Duration{100 * time.Millisecond},
			Iterations:       3,
			Measure:          Duration{100 * time.Millisecond},
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a TOML sweep file. Keys absent from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("harness: load %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
	}
	return cfg, nil
}

// Validate checks that the sweep is non-empty and every value is usable.
func (c Config) Validate() error {
	switch {
	case len(c.Kinds) == 0:
		return fmt.Errorf("%w: no kinds", ErrInvalidConfig)
	case len(c.Capacities) == 0:
		return fmt.Errorf("%w: no capacities", ErrInvalidConfig)
	case len(c.Pairs) == 0:
		return fmt.Errorf("%w: no pairs", ErrInvalidConfig)
	case len(c.Ops) == 0:
		return fmt.Errorf("%w: no ops", ErrInvalidConfig)
	}
	for _, k := range c.Kinds {
		if int(k) < 0 || int(k) >= len(queue.Kinds()) {
			return fmt.Errorf("%w: unknown kind %v", ErrInvalidConfig, k)
		}
	}
	for _, capacity := range c.Capacities {
		if capacity < 1 {
			return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, capacity)
		}
	}
	for _, p := range c.Pairs {
		if p < 1 {
			return fmt.Errorf("%w: pairs must be positive, got %d", ErrInvalidConfig, p)
		}
	}
	for _, o := range c.Ops {
		if int(o) < 0 || int(o) >= len(opNames) {
			return fmt.Errorf("%w: unknown op %v", ErrInvalidConfig, o)
		}
	}
	if err := c.Schedule(OpPut).validate(""); err != nil {
		return err
	}
	if slices.Contains(c.Ops, OpBaseline) {
		if err := c.Baseline.validate("baseline "); err != nil {
			return err
		}
	}
	if c.TrialCooldown.Duration < 0 || c.MaxCooldown.Duration < 0 {
		return fmt.Errorf("%w: cooldowns must not be negative", ErrInvalidConfig)
	}
	return nil
}
